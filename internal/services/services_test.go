package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"userflow-service/internal/auth"
	"userflow-service/internal/models"
	"userflow-service/internal/repository"
	"userflow-service/internal/testutil"
	"userflow-service/internal/vision"
)

var (
	alice     = auth.Identity{UserID: "user_alice"}
	bob       = auth.Identity{UserID: "user_bob"}
	acmeBob   = auth.Identity{UserID: "user_bob", OrgID: "org_acme"}
	acmeAlice = auth.Identity{UserID: "user_alice", OrgID: "org_acme"}
	nobody    = auth.Identity{}
)

type fixture struct {
	db    *gorm.DB
	repos *repository.Repositories
}

func newFixture(t *testing.T) *fixture {
	db := testutil.NewDB(t)
	return &fixture{db: db, repos: repository.NewRepositories(db)}
}

func (f *fixture) project(t *testing.T, owner auth.Identity) *models.Project {
	p := &models.Project{Name: "Onboarding", UserID: owner.UserID, ClerkOrgID: owner.OrgID}
	require.NoError(t, f.repos.Projects.Create(p))
	return p
}

func (f *fixture) flow(t *testing.T, projectID uuid.UUID, name string) *models.Flow {
	idx, err := f.repos.Flows.NextOrderIndex(projectID)
	require.NoError(t, err)
	fl := &models.Flow{ProjectID: projectID, Name: name, OrderIndex: idx}
	require.NoError(t, f.repos.Flows.Create(fl))
	return fl
}

func (f *fixture) screen(t *testing.T, flowID uuid.UUID, title string) *models.Screen {
	idx, err := f.repos.Screens.NextOrderIndex(flowID)
	require.NoError(t, err)
	s := &models.Screen{FlowID: flowID, Title: title, OrderIndex: idx}
	require.NoError(t, f.repos.Screens.Create(s))
	return s
}

// tree creates a project owned by owner with one flow and one screen.
func (f *fixture) tree(t *testing.T, owner auth.Identity) (*models.Project, *models.Flow, *models.Screen) {
	p := f.project(t, owner)
	fl := f.flow(t, p.ID, "Sign up")
	return p, fl, f.screen(t, fl.ID, "Welcome")
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string
	putErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (m *memStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	m.objects[key] = data
	return "https://cdn.test/" + key, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.Errorf("no object %s", key)
	}
	return data, nil
}

func (m *memStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.removed = append(m.removed, key)
	return nil
}

type stubVision struct {
	analysis  *vision.Analysis
	detection *vision.Detection
	err       error

	analyzeCalls int
	detectURL    string
}

func (s *stubVision) Analyze(_ context.Context, _ string, _ []vision.ContextScreen) (*vision.Analysis, error) {
	s.analyzeCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.analysis, nil
}

func (s *stubVision) DetectElements(_ context.Context, imageURL string) (*vision.Detection, error) {
	s.detectURL = imageURL
	if s.err != nil {
		return nil, s.err
	}
	return s.detection, nil
}

type countingRecorder struct {
	hits, misses int
	encodes      int
}

func (r *countingRecorder) ObserveAnalysisCache(hit bool) {
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *countingRecorder) ObserveEncode(int, int64, bool) { r.encodes++ }

type stubDirectory struct {
	profiles map[string]auth.UserProfile
}

func (d stubDirectory) LookupUser(_ context.Context, userID string) (auth.UserProfile, error) {
	p, ok := d.profiles[userID]
	if !ok {
		return auth.UserProfile{}, errors.New("user not found")
	}
	return p, nil
}

type recordingOrgs struct {
	calls []string
}

func (r *recordingOrgs) CreateOrganization(_ context.Context, name, slug, createdBy string) (*auth.Organization, error) {
	r.calls = append(r.calls, name+"|"+slug+"|"+createdBy)
	return &auth.Organization{ID: "org_new", Name: name}, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func ptr[T any](v T) *T { return &v }
