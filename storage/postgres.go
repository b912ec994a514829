package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"ewintr.nl/trendai/model"
	"github.com/lib/pq"
)

type PostgresInfo struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

func (pi PostgresInfo) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", pi.Host, pi.Port, pi.User, pi.Password, pi.Database)
}

type Postgres struct {
	db *sql.DB
}

func NewPostgres(pgInfo PostgresInfo) (*Postgres, error) {
	db, err := sql.Open("postgres", pgInfo.DSN())
	if err != nil {
		return &Postgres{}, err
	}
	p := &Postgres{db: db}
	if err := p.migrate(pgMigration); err != nil {
		return &Postgres{}, err
	}

	return p, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

// Publish upserts the video and, when present, its summary.
func (p *Postgres) Publish(ctx context.Context, video *model.Video, summary *model.SeoSummary) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var channelID *string
	if video.ChannelID != nil {
		cid := string(*video.ChannelID)
		channelID = &cid
	}
	tags := video.Tags
	if tags == nil {
		tags = []string{}
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO video
(youtube_id, slug, title, description, channel_title, channel_id, published_at, region_code, youtube_url, thumbnail_file,
 view_count, like_count, comment_count, duration, tags)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (youtube_id)
DO UPDATE SET
  slug = EXCLUDED.slug,
  title = EXCLUDED.title,
  description = EXCLUDED.description,
  channel_title = EXCLUDED.channel_title,
  channel_id = EXCLUDED.channel_id,
  published_at = EXCLUDED.published_at,
  thumbnail_file = EXCLUDED.thumbnail_file,
  view_count = EXCLUDED.view_count,
  like_count = EXCLUDED.like_count,
  comment_count = EXCLUDED.comment_count,
  duration = EXCLUDED.duration,
  tags = EXCLUDED.tags`,
		video.ID, model.Slug(video.TitleOr("")), video.TitleOr(""), video.DescriptionOr(""),
		video.ChannelTitle, channelID, video.PublishedAt, video.RegionCode, video.YoutubeURL, video.ThumbnailFile,
		parseCount(video.ViewCount), parseCount(video.LikeCount), parseCount(video.CommentCount), video.Duration,
		pq.Array(tags)); err != nil {
		return fmt.Errorf("could not save video %s: %w", video.ID, err)
	}

	if summary != nil {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO seo_summary
(youtube_id, seo_title, seo_description)
VALUES ($1, $2, $3)
ON CONFLICT (youtube_id)
DO UPDATE SET
  seo_title = EXCLUDED.seo_title,
  seo_description = EXCLUDED.seo_description`,
			video.ID, summary.Title, summary.Description); err != nil {
			return fmt.Errorf("could not save summary %s: %w", video.ID, err)
		}
	}

	return tx.Commit()
}

// parseCount turns the platform's numeric strings into a nullable column value.
func parseCount(count *string) sql.NullInt64 {
	if count == nil {
		return sql.NullInt64{}
	}
	n, err := strconv.ParseInt(*count, 10, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

func (p *Postgres) migrate(wanted []string) error {
	query := `CREATE TABLE IF NOT EXISTS migration
("id" SERIAL PRIMARY KEY, "query" TEXT)`
	_, err := p.db.Exec(query)
	if err != nil {
		return err
	}

	// find existing
	rows, err := p.db.Query(`SELECT query FROM migration ORDER BY id`)
	if err != nil {
		return err
	}

	existing := []string{}
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			return err
		}
		existing = append(existing, query)
	}
	rows.Close()

	// compare
	missing, err := compareMigrations(wanted, existing)
	if err != nil {
		return err
	}

	// execute missing
	for _, query := range missing {
		if _, err := p.db.Exec(query); err != nil {
			return err
		}

		// register
		if _, err := p.db.Exec(`
INSERT INTO migration
(query) VALUES ($1)
`, query); err != nil {
			return err
		}
	}

	return nil
}

func compareMigrations(wanted, existing []string) ([]string, error) {
	needed := []string{}
	if len(wanted) < len(existing) {
		return []string{}, fmt.Errorf("not enough migrations")
	}

	for i, want := range wanted {
		switch {
		case i >= len(existing):
			needed = append(needed, want)
		case want == existing[i]:
			// do nothing
		case want != existing[i]:
			return []string{}, fmt.Errorf("incompatible migration: %v", want)
		}
	}

	return needed, nil
}
