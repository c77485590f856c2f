package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/maintlog/internal/blobstore"
	"github.com/dmitrijs2005/maintlog/internal/logging"
	"github.com/dmitrijs2005/maintlog/internal/models"
	"github.com/dmitrijs2005/maintlog/internal/repositories"
)

// EntryInput is what the user fills in. An empty ID creates a new entry.
type EntryInput struct {
	ID        string
	Machine   string
	Work      string
	Status    models.Status
	Duration  string
	Mode      models.Mode
	Lead      string
	Team      []string
	Materials []models.Material
	Obs       string
	Think     string
	Photos    []models.Photo
}

type EntryService interface {
	// Save creates or updates an entry and reports whether it was new.
	Save(ctx context.Context, in EntryInput) (*models.Entry, bool, error)
	Get(ctx context.Context, id string) (*models.Entry, error)
	Delete(ctx context.Context, id string) error
	// List returns entries newest first, narrowed by a case-insensitive
	// search over machine, work, notes, status and materials.
	List(ctx context.Context, query string) ([]*models.Entry, error)
	// PhotoURL returns something a viewer can open: a presigned link for
	// offloaded photos, the data URL otherwise.
	PhotoURL(ctx context.Context, p models.Photo) (string, error)
}

type entryService struct {
	repos  *repositories.Set
	photos blobstore.PhotoStore
	log    logging.Logger
	now    func() time.Time
	newID  func() string
}

// NewEntryService builds the service. photos may be nil, in which case
// photo payloads stay embedded in the entry.
func NewEntryService(repos *repositories.Set, photos blobstore.PhotoStore, log logging.Logger) EntryService {
	return &entryService{
		repos:  repos,
		photos: photos,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *entryService) Save(ctx context.Context, in EntryInput) (*models.Entry, bool, error) {
	machine, work := strings.TrimSpace(in.Machine), strings.TrimSpace(in.Work)
	if machine == "" && work == "" {
		return nil, false, fmt.Errorf("%w: enter a machine or a work description", models.ErrValidation)
	}

	now := s.now().UTC()
	var existing *models.Entry
	if in.ID != "" {
		var err error
		if existing, err = s.repos.Entries.Get(ctx, in.ID); err != nil {
			return nil, false, fmt.Errorf("load entry %s: %w", in.ID, err)
		}
	}

	e := &models.Entry{
		ID:          in.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Machine:     machine,
		Work:        work,
		Status:      in.Status,
		DurationMin: models.ParseDurationMin(in.Duration),
		Mode:        in.Mode,
		Lead:        in.Lead,
		Team:        []string{},
		Materials:   in.Materials,
		Obs:         strings.TrimSpace(in.Obs),
		Think:       strings.TrimSpace(in.Think),
		Photos:      in.Photos,
	}
	if e.ID == "" {
		e.ID = s.newID()
	}
	if existing != nil {
		e.CreatedAt = existing.CreatedAt
	}
	if e.Status == "" {
		e.Status = models.StatusOK
	}
	if e.Mode == "" {
		e.Mode = models.ModeSolo
	}
	if e.Lead == "" {
		e.Lead = PersonMe
	}
	if e.Mode == models.ModeTeam {
		e.Team = slices.Clone(in.Team)
		if len(e.Team) == 0 {
			e.Team = []string{PersonMe}
		}
	}
	if e.Materials == nil {
		e.Materials = []models.Material{}
	}
	if e.Photos == nil {
		e.Photos = []models.Photo{}
	}

	if err := e.Validate(); err != nil {
		return nil, false, err
	}
	uploaded, err := s.offloadPhotos(ctx, e)
	if err != nil {
		s.discardUploads(ctx, uploaded)
		return nil, false, err
	}
	if err := s.repos.Entries.Put(ctx, e); err != nil {
		s.discardUploads(ctx, uploaded)
		return nil, false, fmt.Errorf("save entry %s: %w", e.ID, err)
	}
	if existing != nil {
		s.dropOrphanPhotos(ctx, existing, e)
	}

	if machine != "" {
		if err := s.repos.Settings.SetLastMachine(ctx, machine); err != nil {
			s.log.Warn(ctx, "remember last machine", "err", err)
		}
	}
	s.log.Info(ctx, "entry saved", "id", e.ID, "machine", e.Machine, "new", existing == nil)
	return e, existing == nil, nil
}

// offloadPhotos uploads embedded photos and returns the keys written, also
// on failure.
func (s *entryService) offloadPhotos(ctx context.Context, e *models.Entry) ([]string, error) {
	if s.photos == nil {
		return nil, nil
	}
	var uploaded []string
	for i := range e.Photos {
		p := &e.Photos[i]
		if p.StorageKey != "" || p.DataURL == "" {
			continue
		}
		contentType, data, err := DecodeDataURL(p.DataURL)
		if err != nil {
			return uploaded, fmt.Errorf("photo %q: %w", p.Name, err)
		}
		if p.Type == "" {
			p.Type = contentType
		}
		key := fmt.Sprintf("photos/%s/%s", e.ID, s.newID())
		if err := s.photos.Put(ctx, key, p.Type, data); err != nil {
			return uploaded, fmt.Errorf("upload photo %q: %w", p.Name, err)
		}
		uploaded = append(uploaded, key)
		p.StorageKey, p.DataURL = key, ""
		s.log.Debug(ctx, "photo offloaded", "entry", e.ID, "key", key, "bytes", len(data))
	}
	return uploaded, nil
}

// discardUploads removes objects written for a save that did not complete.
// It runs detached from ctx, which may be the reason the save failed.
func (s *entryService) discardUploads(ctx context.Context, keys []string) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		if err := s.photos.Delete(ctx, key); err != nil {
			s.log.Warn(ctx, "discard photo", "key", key, "err", err)
		}
	}
}

// dropOrphanPhotos removes stored objects the new version no longer uses.
func (s *entryService) dropOrphanPhotos(ctx context.Context, prev, cur *models.Entry) {
	if s.photos == nil {
		return
	}
	keep := make(map[string]struct{}, len(cur.Photos))
	for _, p := range cur.Photos {
		keep[p.StorageKey] = struct{}{}
	}
	for _, p := range prev.Photos {
		if p.StorageKey == "" {
			continue
		}
		if _, ok := keep[p.StorageKey]; ok {
			continue
		}
		if err := s.photos.Delete(ctx, p.StorageKey); err != nil {
			s.log.Warn(ctx, "delete photo", "key", p.StorageKey, "err", err)
		}
	}
}

func (s *entryService) Get(ctx context.Context, id string) (*models.Entry, error) {
	e, err := s.repos.Entries.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load entry %s: %w", id, err)
	}
	if e == nil {
		return nil, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return e, nil
}

func (s *entryService) Delete(ctx context.Context, id string) error {
	e, err := s.repos.Entries.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("load entry %s: %w", id, err)
	}
	if err := s.repos.Entries.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	if e != nil {
		s.dropOrphanPhotos(ctx, e, &models.Entry{})
	}
	s.log.Info(ctx, "entry deleted", "id", id)
	return nil
}

func (s *entryService) List(ctx context.Context, query string) ([]*models.Entry, error) {
	all, err := s.repos.Entries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	out := all[:0]
	for _, e := range all {
		if e.Matches(query) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Entry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *entryService) PhotoURL(ctx context.Context, p models.Photo) (string, error) {
	if p.StorageKey == "" {
		return p.DataURL, nil
	}
	if s.photos == nil {
		return "", fmt.Errorf("photo %q is in object storage, which is not configured", p.Name)
	}
	return s.photos.PresignGet(ctx, p.StorageKey, 15*time.Minute)
}
