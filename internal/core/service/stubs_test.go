package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/homestead/marketplace-api/internal/core/domain"
	"github.com/homestead/marketplace-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	seq       int
	createErr error // if set, Create returns this error once
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func (r *stubUserRepo) put(u *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		r.seq++
		u.ID = fmt.Sprintf("user-%d", r.seq)
	}
	r.users[u.ID] = cloneUser(u)
	return cloneUser(u)
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = domain.NormalizeEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByExternalID(_ context.Context, externalID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ExternalID != "" && u.ExternalID == externalID {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByResetToken(_ context.Context, token string, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if token != "" && u.ResetPasswordToken == token && u.ResetPasswordExpires.After(now) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return nil, err
	}
	if err := user.ValidateCredentials(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	for _, u := range r.users {
		if u.Email == user.Email || (user.ExternalID != "" && u.ExternalID == user.ExternalID) {
			r.mu.Unlock()
			return nil, domain.ErrUserExists
		}
	}
	r.mu.Unlock()
	return r.put(cloneUser(user)), nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) mutate(id string, fn func(u *domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (r *stubUserRepo) SetPasswordHash(_ context.Context, id, hash string) error {
	return r.mutate(id, func(u *domain.User) {
		u.PasswordHash = hash
		u.ResetPasswordToken = ""
		u.ResetPasswordExpires = time.Time{}
	})
}

func (r *stubUserRepo) SetResetToken(_ context.Context, id, token string, expires time.Time) error {
	return r.mutate(id, func(u *domain.User) {
		u.ResetPasswordToken = token
		u.ResetPasswordExpires = expires
	})
}

func (r *stubUserRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return r.mutate(id, func(u *domain.User) { u.LastLogin = at })
}

func (r *stubUserRepo) IncrementListingCount(_ context.Context, id string, delta int) error {
	return r.mutate(id, func(u *domain.User) { u.ListingCount += delta })
}

func (r *stubUserRepo) UpdateStatus(_ context.Context, id string, status domain.AccountStatus) (*domain.User, error) {
	var out *domain.User
	err := r.mutate(id, func(u *domain.User) {
		u.AccountStatus = status
		out = cloneUser(u)
	})
	return out, err
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, page, limit int) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, cloneUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	skip := (page - 1) * limit
	if skip >= len(all) {
		return []*domain.User{}, int64(len(all)), nil
	}
	end := skip + limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], int64(len(all)), nil
}

// ---------------------------------------------------------------------------
// Collaborator stubs
// ---------------------------------------------------------------------------

type recordingLogins struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingLogins) RecordLogin(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, userID)
}

type sentMail struct {
	to, name, link string
}

type stubMailer struct {
	sent []sentMail
	err  error
}

func (m *stubMailer) SendPasswordReset(_ context.Context, to, name, link string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, name: name, link: link})
	return nil
}

type stubThrottle struct {
	allow bool
	err   error
}

func (t *stubThrottle) AllowReset(context.Context, string) (bool, error) {
	return t.allow, t.err
}

type stubProvider struct {
	identities map[string]*ports.ExternalIdentity
	revoked    []string
	revokeErr  error
}

func (p *stubProvider) GetIdentity(_ context.Context, externalID string) (*ports.ExternalIdentity, error) {
	id, ok := p.identities[externalID]
	if !ok {
		return nil, errors.New("identity not found")
	}
	return id, nil
}

func (p *stubProvider) RevokeIdentity(_ context.Context, externalID string) error {
	p.revoked = append(p.revoked, externalID)
	return p.revokeErr
}

type stubListingCleaner struct {
	owners []string
}

func (c *stubListingCleaner) RemoveAllForOwner(_ context.Context, ownerID string) error {
	c.owners = append(c.owners, ownerID)
	return nil
}

// ---------------------------------------------------------------------------
// Property collaborators
// ---------------------------------------------------------------------------

type stubPropertyRepo struct {
	items     map[string]*domain.Property
	seq       int
	createErr error
}

func newStubPropertyRepo() *stubPropertyRepo {
	return &stubPropertyRepo{items: make(map[string]*domain.Property)}
}

func (r *stubPropertyRepo) Create(_ context.Context, p *domain.Property) (*domain.Property, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.seq++
	c := *p
	c.ID = fmt.Sprintf("prop-%d", r.seq)
	r.items[c.ID] = &c
	out := c
	return &out, nil
}

func (r *stubPropertyRepo) FindByID(_ context.Context, id string) (*domain.Property, error) {
	p, ok := r.items[id]
	if !ok {
		return nil, domain.ErrPropertyNotFound
	}
	c := *p
	return &c, nil
}

func (r *stubPropertyRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.Property, error) {
	var out []*domain.Property
	for _, p := range r.items {
		if p.OwnerID == ownerID {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *stubPropertyRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return domain.ErrPropertyNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *stubPropertyRepo) DeleteByOwner(_ context.Context, ownerID string) ([]*domain.Property, error) {
	var removed []*domain.Property
	for id, p := range r.items {
		if p.OwnerID == ownerID {
			removed = append(removed, p)
			delete(r.items, id)
		}
	}
	return removed, nil
}

type stubStorage struct {
	objects  map[string][]byte
	deleted  []string
	failOn   string // Upload fails for keys ending with this suffix
	uploaded int
}

func newStubStorage() *stubStorage {
	return &stubStorage{objects: make(map[string][]byte)}
}

func (s *stubStorage) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) (string, error) {
	if s.failOn != "" && bytes.HasSuffix([]byte(key), []byte(s.failOn)) {
		return "", errors.New("storage unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.objects[key] = data
	s.uploaded++
	return "https://cdn.example.com/" + key, nil
}

func (s *stubStorage) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.objects, key)
	return nil
}

type stubGuard struct {
	held     map[string]bool
	released []string
}

func newStubGuard() *stubGuard {
	return &stubGuard{held: make(map[string]bool)}
}

func (g *stubGuard) Acquire(_ context.Context, userID, key string) (bool, error) {
	k := userID + ":" + key
	if g.held[k] {
		return false, nil
	}
	g.held[k] = true
	return true, nil
}

func (g *stubGuard) Release(_ context.Context, userID, key string) error {
	k := userID + ":" + key
	delete(g.held, k)
	g.released = append(g.released, k)
	return nil
}

func mediaFile(name, contentType, content string) ports.MediaUpload {
	return ports.MediaUpload{
		Filename:    name,
		ContentType: contentType,
		Size:        int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewBufferString(content)), nil
		},
	}
}
