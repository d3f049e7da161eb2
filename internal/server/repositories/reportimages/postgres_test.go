package reportimages

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/seichilog/seichilog/internal/common"
	"github.com/seichilog/seichilog/internal/server/models"
)

// arrayConverter lets []string args (pgx encodes them as text[]) through
// sqlmock's argument conversion.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if _, ok := v.([]string); ok {
		return v, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.ValueConverterOption(arrayConverter{}),
	)
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+report_images\s*\(id,\s*report_id,\s*object_key,\s*caption,\s*display_order\)`

	caption := "school gate"
	mock.ExpectExec(q).
		WithArgs("i-1", "r-1", "uploads/u-1/report/2025-04-01/x.jpg", caption, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	img := &models.ReportImage{
		ID: "i-1", ReportID: "r-1",
		ObjectKey: "uploads/u-1/report/2025-04-01/x.jpg",
		Caption:   &caption, DisplayOrder: 1,
	}
	if err := repo.Create(context.Background(), img); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+report_images`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.ReportImage{ID: "i-1", ReportID: "r-1", ObjectKey: "k"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdate_TouchesCaptionAndOrderOnly(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	caption := "new caption"
	mock.ExpectExec(`(?s)^\s*UPDATE\s+report_images\s+SET\s+caption\s*=\s*\$2,\s*display_order\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("i-1", caption, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	img := &models.ReportImage{ID: "i-1", ObjectKey: "ignored", Caption: &caption, DisplayOrder: 3}
	if err := repo.Update(context.Background(), img); err != nil {
		t.Fatalf("Update error: %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^\s*UPDATE\s+report_images`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Update(context.Background(), &models.ReportImage{ID: "missing"}); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSelectByReport(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "report_id", "object_key", "caption", "display_order"}).
		AddRow("i-1", "r-1", "k1", nil, 1).
		AddRow("i-2", "r-1", "k2", nil, 2)

	mock.ExpectQuery(`(?s)FROM\s+report_images\s+WHERE\s+report_id\s*=\s*\$1\s+ORDER\s+BY\s+display_order`).
		WithArgs("r-1").
		WillReturnRows(rows)

	got, err := repo.SelectByReport(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("SelectByReport error: %v", err)
	}
	if len(got) != 2 || got[0].ObjectKey != "k1" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestSelectKeysByArticle_JoinsThroughReports(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"object_key"}).AddRow("k1").AddRow("k2").AddRow("k3")

	mock.ExpectQuery(`(?s)SELECT\s+ri\.object_key\s+FROM\s+report_images\s+ri\s+JOIN\s+reports\s+rep\s+ON\s+rep\.id\s*=\s*ri\.report_id\s+WHERE\s+rep\.article_id\s*=\s*\$1`).
		WithArgs("a-1").
		WillReturnRows(rows)

	got, err := repo.SelectKeysByArticle(context.Background(), "a-1")
	if err != nil {
		t.Fatalf("SelectKeysByArticle error: %v", err)
	}
	if len(got) != 3 || got[2] != "k3" {
		t.Fatalf("unexpected keys: %v", got)
	}
}

func TestDeleteAbsent_ReturnsObjectKeys(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"object_key"}).AddRow("k-dropped")

	mock.ExpectQuery(`(?s)^\s*DELETE\s+FROM\s+report_images\s+WHERE\s+report_id\s*=\s*\$1\s+AND\s+id::text\s+<>\s+ALL\(\$2\)\s+RETURNING\s+object_key`).
		WithArgs("r-1", []string{"i-1"}).
		WillReturnRows(rows)

	got, err := repo.DeleteAbsent(context.Background(), "r-1", []string{"i-1"})
	if err != nil {
		t.Fatalf("DeleteAbsent error: %v", err)
	}
	if len(got) != 1 || got[0] != "k-dropped" {
		t.Fatalf("unexpected keys: %v", got)
	}
}

func TestDeleteAbsent_NilKeepSentAsEmptyArray(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"object_key"}).AddRow("k1").AddRow("k2")

	// a nil slice must be normalized before it reaches the driver: pgx
	// encodes nil as SQL NULL and <> ALL(NULL) would delete nothing
	mock.ExpectQuery(`DELETE\s+FROM\s+report_images`).
		WithArgs("r-1", []string{}).
		WillReturnRows(rows)

	got, err := repo.DeleteAbsent(context.Background(), "r-1", nil)
	if err != nil {
		t.Fatalf("DeleteAbsent error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected keys: %v", got)
	}
}
