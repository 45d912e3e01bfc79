package persistence

import (
	"context"
	"testing"

	"allergy-menu-guard/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RepositoryTestSuite struct {
	suite.Suite
	repo *Repository
	ctx  context.Context
}

func (s *RepositoryTestSuite) SetupTest() {
	db, err := Open("", false)
	s.Require().NoError(err)
	s.repo = NewRepository(db)
	s.ctx = context.Background()
}

func (s *RepositoryTestSuite) TearDownTest() {
	s.Require().NoError(s.repo.Close())
}

func (s *RepositoryTestSuite) TestReplaceAllergies() {
	rows, err := s.repo.ReplaceAllergies(s.ctx, "u1", []AllergyInput{
		{Name: "牛奶", Severity: "HIGH"},
		{Name: " peanut "},
		{Name: "牛奶"},
		{Name: ""},
	})
	s.Require().NoError(err)
	s.Len(rows, 2)

	names, err := s.repo.AllergyNames(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal([]string{"牛奶", "peanut"}, names)

	list, err := s.repo.ListAllergies(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal("high", list[0].Severity)
	s.Equal("medium", list[1].Severity)

	_, err = s.repo.ReplaceAllergies(s.ctx, "u1", []AllergyInput{{Name: "egg"}})
	s.Require().NoError(err)
	names, err = s.repo.AllergyNames(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal([]string{"egg"}, names)

	_, err = s.repo.ReplaceAllergies(s.ctx, "u1", nil)
	s.Require().NoError(err)
	names, err = s.repo.AllergyNames(s.ctx, "u1")
	s.Require().NoError(err)
	s.Empty(names)
}

func (s *RepositoryTestSuite) TestUsersAreIsolated() {
	_, err := s.repo.ReplaceAllergies(s.ctx, "u1", []AllergyInput{{Name: "milk"}})
	s.Require().NoError(err)
	_, err = s.repo.ReplaceAllergies(s.ctx, "u2", []AllergyInput{{Name: "egg"}})
	s.Require().NoError(err)

	names, err := s.repo.AllergyNames(s.ctx, "u1")
	s.Require().NoError(err)
	s.Equal([]string{"milk"}, names)
}

func (s *RepositoryTestSuite) TestReplaceAllergies_RequiresUser() {
	_, err := s.repo.ReplaceAllergies(s.ctx, " ", []AllergyInput{{Name: "milk"}})
	s.True(common.IsValidationError(err))
}

func (s *RepositoryTestSuite) TestHistory() {
	for _, text := range []string{"latte", "mocha", "croissant"} {
		s.Require().NoError(s.repo.SaveAnalysis(s.ctx, &MenuAnalysis{UserID: "u1", InputText: text, FinalRiskLevel: "safe"}))
	}
	s.Require().NoError(s.repo.SaveAnalysis(s.ctx, &MenuAnalysis{UserID: "u2", InputText: "tea"}))

	got, err := s.repo.History(s.ctx, "u1", 2)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("croissant", got[0].InputText)
	s.Equal("mocha", got[1].InputText)
}

func TestRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func TestOpen_File(t *testing.T) {
	path := t.TempDir() + "/guard.db"
	db, err := Open(path, false)
	require.NoError(t, err)

	repo := NewRepository(db)
	_, err = repo.ReplaceAllergies(context.Background(), "u1", []AllergyInput{{Name: "milk"}})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	db, err = Open(path, false)
	require.NoError(t, err)
	repo = NewRepository(db)
	defer repo.Close()

	names, err := repo.AllergyNames(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"milk"}, names)
}
