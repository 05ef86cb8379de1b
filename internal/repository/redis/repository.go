// Package redis provides a Redis/Valkey implementation of the session store
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/MilynDsilva/consultrooms/internal/config"
	"github.com/MilynDsilva/consultrooms/internal/models"
)

// meetingRecord is the internal model for meeting metadata in Redis.
// The roster lives in a separate hash so attendee set/remove are
// single atomic commands.
type meetingRecord struct {
	Title             string
	ExternalMeetingID string
	MediaRegion       string
}

// Repository implements the session store with Redis storage
type Repository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRepository creates a new Redis repository
func NewRepository(cfg config.RedisConfig) (*Repository, error) {
	var client *redis.Client

	// Use URI if provided, otherwise build connection from individual parameters
	if cfg.URI != "" {
		opt, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse Redis URI")
		}
		if opt.DB == 0 {
			opt.DB = cfg.DB
		}
		if opt.Password == "" && cfg.Password != "" {
			opt.Password = cfg.Password
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &Repository{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.MeetingTTL,
	}, nil
}

// Close closes the Redis connection
func (r *Repository) Close() error {
	return r.client.Close()
}

func (r *Repository) meetingKey(title string) string {
	return fmt.Sprintf("%smeetings:%s", r.keyPrefix, title)
}

func (r *Repository) rosterKey(title string) string {
	return fmt.Sprintf("%smeetings:%s:roster", r.keyPrefix, title)
}

func (r *Repository) recordingKey(title string) string {
	return fmt.Sprintf("%smeetings:%s:recording", r.keyPrefix, title)
}

// SaveMeeting stores meeting metadata; roster and recording keys are
// left untouched so a repeated create cannot wipe bookkeeping
func (r *Repository) SaveMeeting(ctx context.Context, meeting *models.Meeting) error {
	record := meetingRecord{
		Title:             meeting.Title,
		ExternalMeetingID: meeting.ExternalMeetingID,
		MediaRegion:       meeting.MediaRegion,
	}

	data, err := json.Marshal(&record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal meeting")
	}

	if err := r.client.Set(ctx, r.meetingKey(meeting.Title), data, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to save meeting")
	}
	return nil
}

// GetMeeting retrieves a meeting with its roster and recording state
func (r *Repository) GetMeeting(ctx context.Context, title string) (*models.Meeting, error) {
	record, err := r.getRecord(ctx, title)
	if err != nil {
		return nil, err
	}

	meeting := models.NewMeeting(record.Title, record.ExternalMeetingID, record.MediaRegion)

	roster, err := r.client.HGetAll(ctx, r.rosterKey(title)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load roster")
	}
	for id, name := range roster {
		meeting.Attendees[id] = name
	}

	recording, err := r.Recording(ctx, title)
	if err != nil {
		return nil, err
	}
	meeting.Recording = recording

	return meeting, nil
}

// ListMeetings returns all stored meetings
func (r *Repository) ListMeetings(ctx context.Context) ([]*models.Meeting, error) {
	pattern := fmt.Sprintf("%smeetings:*", r.keyPrefix)

	var meetings []*models.Meeting
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		// Skip roster and recording keys picked up by the pattern
		var record meetingRecord
		data, err := r.client.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		if err := json.Unmarshal([]byte(data), &record); err != nil || record.Title == "" {
			continue
		}
		meeting, err := r.GetMeeting(ctx, record.Title)
		if err != nil {
			continue
		}
		meetings = append(meetings, meeting)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan meetings")
	}
	return meetings, nil
}

// DeleteMeeting removes a meeting and its roster and recording state
func (r *Repository) DeleteMeeting(ctx context.Context, title string) error {
	if _, err := r.getRecord(ctx, title); err != nil {
		return err
	}

	keys := []string{r.meetingKey(title), r.rosterKey(title), r.recordingKey(title)}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "failed to delete meeting")
	}
	return nil
}

// Roster returns the attendee mapping for a meeting
func (r *Repository) Roster(ctx context.Context, title string) (models.Roster, error) {
	if _, err := r.getRecord(ctx, title); err != nil {
		return nil, err
	}

	entries, err := r.client.HGetAll(ctx, r.rosterKey(title)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load roster")
	}

	roster := make(models.Roster, len(entries))
	for id, name := range entries {
		roster[id] = name
	}
	return roster, nil
}

// SetAttendee records a display name for an attendee ID
func (r *Repository) SetAttendee(ctx context.Context, title, attendeeID, displayName string) error {
	if _, err := r.getRecord(ctx, title); err != nil {
		return err
	}

	key := r.rosterKey(title)
	if err := r.client.HSet(ctx, key, attendeeID, displayName).Err(); err != nil {
		return errors.Wrap(err, "failed to set attendee")
	}
	if r.ttl > 0 {
		r.client.Expire(ctx, key, r.ttl)
	}
	return nil
}

// RemoveAttendee drops an attendee from the roster; HDEL on an absent
// field is already a no-op, which keeps removal idempotent
func (r *Repository) RemoveAttendee(ctx context.Context, title, attendeeID string) error {
	if _, err := r.getRecord(ctx, title); err != nil {
		return err
	}

	if err := r.client.HDel(ctx, r.rosterKey(title), attendeeID).Err(); err != nil {
		return errors.Wrap(err, "failed to remove attendee")
	}
	return nil
}

// Recording returns the current capture pipeline state, nil when idle
func (r *Repository) Recording(ctx context.Context, title string) (*models.RecordingPipeline, error) {
	if _, err := r.getRecord(ctx, title); err != nil {
		return nil, err
	}

	data, err := r.client.Get(ctx, r.recordingKey(title)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recording state")
	}

	var pipeline models.RecordingPipeline
	if err := json.Unmarshal([]byte(data), &pipeline); err != nil {
		return nil, errors.Wrap(err, "failed to parse recording state")
	}
	return &pipeline, nil
}

// SetRecording replaces the capture pipeline state; nil clears it
func (r *Repository) SetRecording(ctx context.Context, title string, pipeline *models.RecordingPipeline) error {
	if _, err := r.getRecord(ctx, title); err != nil {
		return err
	}

	key := r.recordingKey(title)
	if pipeline == nil {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return errors.Wrap(err, "failed to clear recording state")
		}
		return nil
	}

	data, err := json.Marshal(pipeline)
	if err != nil {
		return errors.Wrap(err, "failed to marshal recording state")
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to save recording state")
	}
	return nil
}

func (r *Repository) getRecord(ctx context.Context, title string) (*meetingRecord, error) {
	data, err := r.client.Get(ctx, r.meetingKey(title)).Result()
	if err == redis.Nil {
		return nil, models.ErrMeetingNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load meeting")
	}

	var record meetingRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, errors.Wrap(err, "failed to parse meeting")
	}
	return &record, nil
}
