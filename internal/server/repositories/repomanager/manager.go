package repomanager

import (
	"context"
	"database/sql"

	"github.com/seichilog/seichilog/internal/dbx"
	"github.com/seichilog/seichilog/internal/server/repositories/articles"
	"github.com/seichilog/seichilog/internal/server/repositories/bookmarks"
	"github.com/seichilog/seichilog/internal/server/repositories/reportimages"
	"github.com/seichilog/seichilog/internal/server/repositories/reports"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Articles(db dbx.DBTX) articles.Repository
	Reports(db dbx.DBTX) reports.Repository
	ReportImages(db dbx.DBTX) reportimages.Repository
	Bookmarks(db dbx.DBTX) bookmarks.Repository
}
