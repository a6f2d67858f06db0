// Package memory is an in-process Store used by tests and local development.
// All maps are guarded by a single mutex; the atomicity the SQL backend gets
// from single statements is provided here by holding the lock across the
// whole operation.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/packlane/authd/internal/domain/repository"
	"github.com/packlane/authd/internal/validation"
)

type Store struct {
	mu sync.Mutex

	clients   map[string]*repository.Client            // by client_id
	codes     map[string]*repository.AuthorizationCode // by code_hash
	tokens    map[string]*repository.Token             // by id
	consents  map[string]*repository.Consent           // by sub_type|sub_id|client_id
	indivs    map[string]*repository.Individual        // by id
	orgs      map[string]*repository.Organization      // by id
	orgAdmins map[string]bool                          // by org_id|individual_id
	sessions  map[string]*repository.WebSession        // by token_hash
}

func New() *Store {
	return &Store{
		clients:   map[string]*repository.Client{},
		codes:     map[string]*repository.AuthorizationCode{},
		tokens:    map[string]*repository.Token{},
		consents:  map[string]*repository.Consent{},
		indivs:    map[string]*repository.Individual{},
		orgs:      map[string]*repository.Organization{},
		orgAdmins: map[string]bool{},
		sessions:  map[string]*repository.WebSession{},
	}
}

func (s *Store) Clients() repository.ClientRepository     { return (*clientRepo)(s) }
func (s *Store) AuthCodes() repository.AuthCodeRepository { return (*authCodeRepo)(s) }
func (s *Store) Tokens() repository.TokenRepository       { return (*tokenRepo)(s) }
func (s *Store) Consents() repository.ConsentRepository   { return (*consentRepo)(s) }
func (s *Store) Accounts() repository.AccountDirectory    { return (*accountDir)(s) }
func (s *Store) Sessions() repository.SessionRepository   { return (*sessionRepo)(s) }

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close()                     {}

// ---- fixtures (accounts and sessions have no write API in the
// repositories, so the memory backend seeds them directly) ----

func (s *Store) SeedIndividual(ind repository.Individual) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indivs[ind.ID] = &ind
}

func (s *Store) SeedOrganization(org repository.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[org.ID] = &org
}

func (s *Store) SeedOrgAdmin(orgID, individualID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgAdmins[orgID+"|"+individualID] = true
}

func (s *Store) SeedSession(ws repository.WebSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[ws.TokenHash] = &ws
}

// ---- clients ----

type clientRepo Store

func (r *clientRepo) GetByClientID(_ context.Context, clientID string) (*repository.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *clientRepo) Create(_ context.Context, c *repository.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c.ClientID]; ok {
		return repository.ErrConflict
	}
	now := time.Now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	r.clients[c.ClientID] = &cp
	return nil
}

func (r *clientRepo) Update(_ context.Context, c *repository.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.clients[c.ClientID]
	if !ok || cur.DeletedAt != nil {
		return repository.ErrNotFound
	}
	c.ID = cur.ID
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	r.clients[c.ClientID] = &cp
	return nil
}

func (r *clientRepo) SoftDelete(_ context.Context, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[clientID]
	if !ok || c.DeletedAt != nil {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	c.DeletedAt = &now
	c.UpdatedAt = now
	return nil
}

// ---- authorization codes ----

type authCodeRepo Store

func (r *authCodeRepo) Create(_ context.Context, code *repository.AuthorizationCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[code.CodeHash]; ok {
		return repository.ErrConflict
	}
	cp := *code
	r.codes[code.CodeHash] = &cp
	return nil
}

func (r *authCodeRepo) Consume(_ context.Context, codeHash, clientID string) (*repository.AuthorizationCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[codeHash]
	if !ok || c.ClientID != clientID {
		return nil, repository.ErrNotFound
	}
	delete(r.codes, codeHash)
	cp := *c
	return &cp, nil
}

func (r *authCodeRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, c := range r.codes {
		if !now.Before(c.ExpiresAt) {
			delete(r.codes, k)
			n++
		}
	}
	return n, nil
}

// ---- tokens ----

type tokenRepo Store

func (r *tokenRepo) Create(_ context.Context, t *repository.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.Nonce != "" {
		for _, ex := range r.tokens {
			if ex.Nonce == t.Nonce {
				return repository.ErrConflict
			}
		}
	}
	t.ID = uuid.NewString()
	cp := *t
	r.tokens[t.ID] = &cp
	return nil
}

func (r *tokenRepo) GetByAccessHash(_ context.Context, hash string) (*repository.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.AccessTokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *tokenRepo) GetByRefreshHash(_ context.Context, hash string) (*repository.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.RefreshTokenHash != "" && t.RefreshTokenHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *tokenRepo) RevokeRefresh(_ context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return repository.ErrNotFound
	}
	if t.RefreshRevokedAt != nil {
		return repository.ErrAlreadyConsumed
	}
	ts := now
	t.RefreshRevokedAt = &ts
	return nil
}

func (r *tokenRepo) RevokeAccess(_ context.Context, id string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return nil
	}
	if t.AccessRevokedAt == nil {
		ts := now
		t.AccessRevokedAt = &ts
	}
	return nil
}

func (r *tokenRepo) NonceSeen(_ context.Context, nonce string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Nonce != "" && t.Nonce == nonce {
			return true, nil
		}
	}
	return false, nil
}

// ---- consents ----

type consentRepo Store

func consentKey(p repository.Principal, clientID string) string {
	return string(p.Kind) + "|" + p.ID + "|" + clientID
}

func (r *consentRepo) Get(_ context.Context, p repository.Principal, clientID string) (*repository.Consent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.consents[consentKey(p, clientID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *consentRepo) UpsertUnion(_ context.Context, p repository.Principal, clientID string, scopes []string) (*repository.Consent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	key := consentKey(p, clientID)
	if c, ok := r.consents[key]; ok {
		c.Scopes = validation.ScopeUnion(c.Scopes, scopes)
		c.UpdatedAt = now
		cp := *c
		return &cp, nil
	}
	c := &repository.Consent{
		ID:        uuid.NewString(),
		SubType:   p.Kind,
		SubID:     p.ID,
		ClientID:  clientID,
		Scopes:    validation.ScopeUnion(nil, scopes),
		GrantedAt: now,
		UpdatedAt: now,
	}
	r.consents[key] = c
	cp := *c
	return &cp, nil
}

// ---- accounts ----

type accountDir Store

func (d *accountDir) IndividualByID(_ context.Context, id string) (*repository.Individual, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ind, ok := d.indivs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ind
	return &cp, nil
}

func (d *accountDir) OrganizationByID(_ context.Context, id string) (*repository.Organization, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	org, ok := d.orgs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *org
	return &cp, nil
}

func (d *accountDir) IsOrganizationAdmin(_ context.Context, orgID, individualID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.orgAdmins[orgID+"|"+individualID], nil
}

func (d *accountDir) OrganizationByGitHubOwnerID(_ context.Context, ownerID string) (*repository.Organization, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, org := range d.orgs {
		if org.GitHubOwnerID != "" && org.GitHubOwnerID == ownerID {
			cp := *org
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ---- sessions ----

type sessionRepo Store

func (r *sessionRepo) GetByTokenHash(_ context.Context, hash string) (*repository.WebSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.sessions[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ws
	return &cp, nil
}
