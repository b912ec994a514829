package storage

var pgMigration = []string{
	`CREATE TABLE video (
youtube_id VARCHAR(255) PRIMARY KEY,
slug VARCHAR(255) NOT NULL,
title TEXT NOT NULL DEFAULT '',
description TEXT NOT NULL DEFAULT '',
channel_title VARCHAR(255),
channel_id VARCHAR(255),
published_at VARCHAR(255),
region_code VARCHAR(2) NOT NULL,
youtube_url VARCHAR(255) NOT NULL,
thumbnail_file VARCHAR(255)
)`,
	`CREATE TABLE seo_summary (
youtube_id VARCHAR(255) PRIMARY KEY REFERENCES video(youtube_id) ON DELETE CASCADE,
seo_title TEXT NOT NULL,
seo_description TEXT NOT NULL
)`,
	`ALTER TABLE video
ADD COLUMN view_count BIGINT,
ADD COLUMN like_count BIGINT,
ADD COLUMN comment_count BIGINT,
ADD COLUMN duration VARCHAR(255)`,
	`ALTER TABLE video ADD COLUMN tags TEXT[] NOT NULL DEFAULT '{}'`,
	`CREATE INDEX video_slug_idx ON video (slug)`,
}
