//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"hrcases-be/models"

	"github.com/stretchr/testify/suite"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStoreSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcmongodb.MongoDBContainer
	client    *mongo.Client
	db        *mongo.Database
	cases     *MongoCaseStore
	history   *MongoHistoryStore
}

func TestMongoStoreSuite(t *testing.T) {
	suite.Run(t, new(MongoStoreSuite))
}

func (s *MongoStoreSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcmongodb.Run(s.ctx, "mongo:7")
	s.Require().NoError(err, "failed to start mongodb container")
	s.container = container

	uri, err := container.ConnectionString(s.ctx)
	s.Require().NoError(err)

	s.client, err = mongo.Connect(s.ctx, options.Client().ApplyURI(uri))
	s.Require().NoError(err)
	s.db = s.client.Database("hrcases_test")
}

func (s *MongoStoreSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Disconnect(s.ctx)
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *MongoStoreSuite) SetupTest() {
	s.Require().NoError(s.db.Drop(s.ctx))
	s.Require().NoError(EnsureIndexes(s.ctx, s.db.Collection("cases"), s.db.Collection("history")))
	s.cases = NewMongoCaseStore(s.db, "cases", 5*time.Second)
	s.history = NewMongoHistoryStore(s.db, "history", 5*time.Second)
}

func (s *MongoStoreSuite) insert(c *models.Case) *models.Case {
	s.Require().NoError(s.cases.Insert(s.ctx, c))
	return c
}

func (s *MongoStoreSuite) TestInsertFindArchive() {
	c := s.insert(sampleCase("HR-1", "Kyiv", "2024-01-02", "torture"))

	got, err := s.cases.FindActive(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal("HR-1", got.CaseID)
	s.Equal("2024-01-02", got.DateReported.String())
	s.Equal([]float64{30.5, 50.4}, got.Location.Coordinates.Coordinates)
	s.NotNil(got.Evidence)

	s.Require().NoError(s.cases.SetArchived(s.ctx, c.ID))
	s.Require().NoError(s.cases.SetArchived(s.ctx, c.ID))

	_, err = s.cases.FindActive(s.ctx, c.ID)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.cases.FindAny(s.ctx, c.ID)
	s.NoError(err)
	s.ErrorIs(s.cases.SetArchived(s.ctx, primitive.NewObjectID()), ErrNotFound)
}

func (s *MongoStoreSuite) TestFindMatchesMemoryFilters() {
	memory := NewMemoryCaseStore()
	fixtures := []*models.Case{
		sampleCase("HR-1", "Kyiv", "2024-01-01", "torture"),
		sampleCase("HR-2", "kyiv", "2024-01-31", "torture", "arbitrary_detention"),
		sampleCase("HR-3", "Lviv", "2024-02-01", "forced_displacement"),
		sampleCase("HR-4", "Kyiv (oblast)", "2024-01-15", "torture"),
	}
	for _, c := range fixtures {
		s.insert(c.Clone())
		s.Require().NoError(memory.Insert(s.ctx, c.Clone()))
	}

	from := models.MustParseDate("2024-01-01")
	to := models.MustParseDate("2024-01-31")
	filters := []models.CaseFilter{
		{Region: "KYIV"},
		{Region: "Kyiv (oblast)"},
		{ViolationType: "torture"},
		{ViolationType: "Torture"},
		{ReportedFrom: &from, ReportedTo: &to},
		{Country: "ukraine", Status: "OPEN"},
	}
	for _, f := range filters {
		want, err := memory.Find(s.ctx, f, models.Page{Limit: 100})
		s.Require().NoError(err)
		got, err := s.cases.Find(s.ctx, f, models.Page{Limit: 100})
		s.Require().NoError(err)
		s.Equal(caseIDs(want), caseIDs(got), "filter %+v", f)

		n, err := s.cases.Count(s.ctx, f)
		s.Require().NoError(err)
		s.EqualValues(len(want), n)
	}
}

func caseIDs(cases []models.Case) []string {
	out := make([]string, 0, len(cases))
	for _, c := range cases {
		out = append(out, c.CaseID)
	}
	return out
}

func (s *MongoStoreSuite) TestReplaceClearsOmittedOptionalFields() {
	c := sampleCase("HR-1", "Kyiv", "2024-01-02", "torture")
	c.Victims = []string{"A"}
	c.Priority = models.PriorityHigh
	s.insert(c)

	next := sampleCase("HR-1", "", "2024-01-03", "arbitrary_detention")
	updated, err := s.cases.Replace(s.ctx, c.ID, next)
	s.Require().NoError(err)
	s.Empty(updated.Victims)
	s.Empty(updated.Priority)
	s.Empty(updated.Location.Region)
	s.Equal([]string{"arbitrary_detention"}, updated.ViolationTypes)
	s.True(updated.CreatedAt.Equal(c.CreatedAt.Truncate(time.Millisecond)))
}

func (s *MongoStoreSuite) TestSwapStatusAndPushEvidence() {
	c := s.insert(sampleCase("HR-1", "Kyiv", "2024-01-02", "torture"))

	before, at, err := s.cases.SwapStatus(s.ctx, c.ID, "closed")
	s.Require().NoError(err)
	s.Equal("open", before.Status)

	stored, err := s.cases.FindActive(s.ctx, c.ID)
	s.Require().NoError(err)
	s.True(stored.UpdatedAt.Equal(at))

	first, err := s.cases.PushEvidence(s.ctx, c.ID, []models.Evidence{{Type: "image", URL: "a"}})
	s.Require().NoError(err)
	s.Len(first.Evidence, 1)
	second, err := s.cases.PushEvidence(s.ctx, c.ID, []models.Evidence{{Type: "video", URL: "b"}, {Type: "document", URL: "c"}})
	s.Require().NoError(err)
	s.Len(second.Evidence, 3)
	s.Equal("closed", second.Status)
}

func (s *MongoStoreSuite) TestHistoryAppendIsIdempotent() {
	e := &models.StatusHistoryEntry{
		ID: primitive.NewObjectID(), CaseID: "HR-1", OldStatus: "open", NewStatus: "closed",
		ChangedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.history.Append(s.ctx, e))
	s.Require().NoError(s.history.Append(s.ctx, e))

	entries, err := s.history.ListByCaseID(s.ctx, "HR-1")
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *MongoStoreSuite) TestAnalyticsMatchMemory() {
	memory := NewMemoryCaseStore()
	fixtures := []*models.Case{
		sampleCase("HR-1", "Kyiv", "2024-01-01", "torture", "arbitrary_detention"),
		sampleCase("HR-2", "Kyiv", "2024-01-01", "torture"),
		sampleCase("HR-3", "Lviv", "2024-01-02", "forced_displacement"),
	}
	for _, c := range fixtures {
		s.insert(c.Clone())
		s.Require().NoError(memory.Insert(s.ctx, c.Clone()))
	}
	archived := sampleCase("HR-4", "Kyiv", "2024-01-01", "torture")
	s.insert(archived)
	s.Require().NoError(s.cases.SetArchived(s.ctx, archived.ID))

	for _, f := range []models.AnalyticsFilter{{}, {Region: "kyiv"}, {ViolationType: "torture"}} {
		wantTypes, _ := memory.CountByViolationType(s.ctx, f)
		gotTypes, err := s.cases.CountByViolationType(s.ctx, f)
		s.Require().NoError(err)
		s.ElementsMatch(wantTypes, gotTypes)

		wantDays, _ := memory.CountByDay(s.ctx, f)
		gotDays, err := s.cases.CountByDay(s.ctx, f)
		s.Require().NoError(err)
		s.ElementsMatch(wantDays, gotDays)

		wantGeo, _ := memory.CountByGeography(s.ctx, f)
		gotGeo, err := s.cases.CountByGeography(s.ctx, f)
		s.Require().NoError(err)
		s.ElementsMatch(wantGeo, gotGeo)
	}
}

func (s *MongoStoreSuite) TestLegacyDocumentWithoutArchivedIsActive() {
	id := primitive.NewObjectID()
	_, err := s.db.Collection("cases").InsertOne(s.ctx, bson.M{
		"_id": id, "case_id": "LEGACY", "title": "t", "status": "open",
		"violation_types": bson.A{"torture"},
		"location":        bson.M{"country": "X", "coordinates": bson.M{"type": "Point", "coordinates": bson.A{1.0, 2.0}}},
		"date_occurred":   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		"date_reported":   time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	got, err := s.cases.FindActive(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("LEGACY", got.CaseID)
}
