package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/store"
)

func sample(id, published string) listing.JobListing {
	return listing.JobListing{
		ID:            id,
		Title:         "兼任講師",
		School:        "國立成功大學",
		Department:    listing.DepartmentSeeTitle,
		PublishedDate: published,
		DeadlineDate:  listing.NoDeadline,
		Source:        listing.SourceNSTC,
		Link:          "https://www.nstc.gov.tw/careers/detail?id=66000",
		Tags:          []string{},
		Categories:    []listing.Category{listing.CategoryAdjunct},
	}
}

func payload(t *testing.T, l listing.JobListing) []byte {
	t.Helper()
	data, err := json.Marshal(l)
	require.NoError(t, err)
	return data
}

func TestNewWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(nil, "", nil)
	require.Error(t, err)

	_, err = NewWithPool(mock, "listings; drop table x", nil)
	require.Error(t, err)

	s, err := NewWithPool(mock, "", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultTable, s.table)
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "radar_listings", nil)
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS radar_listings").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSkipsInvalidPayloads(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "listings", nil)
	require.NoError(t, err)

	good := sample("a", "2026-10-13")
	rows := pgxmock.NewRows([]string{"payload"}).
		AddRow(payload(t, good)).
		AddRow([]byte(`{"id":"broken"}`)).
		AddRow([]byte(`not json`))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM listings")).WillReturnRows(rows)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []listing.JobListing{good}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadQueryFailureIsReadError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "listings", nil)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT payload").WillReturnError(errors.New("relation does not exist"))

	_, err = s.Load(context.Background())
	var readErr *store.ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, "postgres", readErr.Backend)
}

func TestSaveReplacesRowsInTransaction(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "listings", nil)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM listings").WillReturnResult(pgxmock.NewResult("DELETE", 5))
	mock.ExpectCopyFrom(pgx.Identifier{"listings"}, []string{"id", "published_date", "payload"}).
		WillReturnResult(2)
	mock.ExpectCommit()

	err = s.Save(context.Background(), []listing.JobListing{sample("a", "2026-10-13"), sample("b", "2026-10-12")})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveEmptySkipsCopy(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "listings", nil)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM listings").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, s.Save(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRollsBackOnCopyFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock, "listings", nil)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM listings").WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"listings"}, []string{"id", "published_date", "payload"}).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = s.Save(context.Background(), []listing.JobListing{sample("a", "2026-10-13")})
	var writeErr *store.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Contains(t, err.Error(), "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}
