package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-resume-portfolio/internal/client"
	apierrors "github.com/pribylovaa/go-resume-portfolio/internal/errors"
	"github.com/pribylovaa/go-resume-portfolio/internal/models"
	"github.com/pribylovaa/go-resume-portfolio/internal/schema"
	"github.com/pribylovaa/go-resume-portfolio/internal/tokenstore"
)

// fakeBackend — in-memory бэкенд портфолио на chi.
type fakeBackend struct {
	mu       sync.Mutex
	auth     []string
	projects []models.Project
	nextID   int64
	upload   struct {
		name    string
		content string
	}
	chat models.ChatRequest
}

func (b *fakeBackend) seen(r *http.Request) {
	b.mu.Lock()
	b.auth = append(b.auth, r.Header.Get("Authorization"))
	b.mu.Unlock()
}

func (b *fakeBackend) lastAuth() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.auth[len(b.auth)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b.seen(r)
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login/", func(w http.ResponseWriter, r *http.Request) {
			var in models.LoginRequest
			_ = json.NewDecoder(r.Body).Decode(&in)
			if in.Password != "pw" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
				return
			}
			writeJSON(w, http.StatusOK, models.AuthResponse{
				User:   models.User{ID: 1, Email: in.Email},
				Tokens: models.TokenPair{Access: "A1", Refresh: "R1"},
			})
		})

		r.Post("/auth/register/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"email":            {"user with this email already exists."},
				"non_field_errors": {"Passwords do not match."},
			})
		})

		r.Post("/auth/logout/", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusResetContent)
		})

		r.Post("/resumes/upload/", func(w http.ResponseWriter, r *http.Request) {
			f, hdr, err := r.FormFile("file")
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
				return
			}
			defer f.Close()
			data, _ := io.ReadAll(f)

			b.mu.Lock()
			b.upload.name = hdr.Filename
			b.upload.content = string(data)
			b.mu.Unlock()

			if strings.Contains(string(data), "broken") {
				writeJSON(w, http.StatusCreated, map[string]any{"id": 9, "email": "nope"})
				return
			}

			writeJSON(w, http.StatusCreated, models.ParsedResume{
				ID:       9,
				FileName: hdr.Filename,
				Name:     "Ada Lovelace",
				Email:    "ada@example.com",
				Skills:   []string{"Go"},
			})
		})

		r.Get("/resumes/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"count":   1,
				"results": []models.ParsedResume{{ID: 9, Name: "Ada Lovelace"}},
			})
		})

		r.Delete("/resumes/{id}/", func(w http.ResponseWriter, r *http.Request) {
			if chi.URLParam(r, "id") != "9" {
				writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/portfolio/projects/", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			writeJSON(w, http.StatusOK, b.projects)
		})

		r.Post("/portfolio/projects/", func(w http.ResponseWriter, r *http.Request) {
			var p models.Project
			_ = json.NewDecoder(r.Body).Decode(&p)
			if p.Title == "" {
				writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
				return
			}
			b.mu.Lock()
			b.nextID++
			p.ID = b.nextID
			b.projects = append(b.projects, p)
			b.mu.Unlock()
			writeJSON(w, http.StatusCreated, p)
		})

		r.Put("/portfolio/projects/{id}/", func(w http.ResponseWriter, r *http.Request) {
			var p models.Project
			_ = json.NewDecoder(r.Body).Decode(&p)
			b.mu.Lock()
			defer b.mu.Unlock()
			for i := range b.projects {
				if chi.URLParam(r, "id") == "1" && b.projects[i].ID == 1 {
					p.ID = 1
					b.projects[i] = p
					writeJSON(w, http.StatusOK, p)
					return
				}
			}
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		})

		r.Delete("/portfolio/projects/{id}/", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			b.projects = nil
			b.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		})

		r.Post("/cover-letters/generate/", func(w http.ResponseWriter, r *http.Request) {
			var in models.GenerateCoverLetterRequest
			_ = json.NewDecoder(r.Body).Decode(&in)
			writeJSON(w, http.StatusOK, map[string]string{
				"cover_letter": "Dear Hiring Manager,\n\nI am applying for **" + in.Role + "** at " + in.Company + ".",
			})
		})

		r.Get("/cover-letters/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, []models.CoverLetter{{ID: 4, Role: "SRE", Company: "Acme", Content: "Hi"}})
		})

		r.Post("/chat/", func(w http.ResponseWriter, r *http.Request) {
			var in models.ChatRequest
			_ = json.NewDecoder(r.Body).Decode(&in)
			b.mu.Lock()
			b.chat = in
			b.mu.Unlock()
			writeJSON(w, http.StatusOK, models.ChatReply{Reply: "echo: " + in.Message})
		})
	})

	return r
}

func newAPI(t *testing.T) (*API, *fakeBackend, tokenstore.Store) {
	t.Helper()

	b := &fakeBackend{}
	srv := httptest.NewServer(b.router())
	t.Cleanup(srv.Close)

	store := tokenstore.New(tokenstore.NewMemory())
	paths := testPaths()

	c, err := client.New(client.Options{
		BaseURL:        srv.URL + "/api",
		Store:          store,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		RefreshPath:    paths.Refresh,
		NoRefreshPaths: []string{paths.Login, paths.Register, paths.Logout},
	})
	require.NoError(t, err)

	return New(c, store, paths), b, store
}

func TestAuthFlow_LoginThenLogout(t *testing.T) {
	t.Parallel()

	a, b, store := newAPI(t)
	ctx := context.Background()

	_, err := a.Auth.Login(ctx, "ada@example.com", "wrong")
	require.ErrorIs(t, err, apierrors.ErrUnauthenticated)
	require.Equal(t, "No active account found with the given credentials", apierrors.Message(err))

	u, err := a.Auth.Login(ctx, "ada@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, int64(1), u.ID)

	pair, err := store.Tokens(ctx)
	require.NoError(t, err)
	require.Equal(t, models.TokenPair{Access: "A1", Refresh: "R1"}, pair)

	_, err = a.Resumes.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "Bearer A1", b.lastAuth())

	require.NoError(t, a.Auth.Logout(ctx))

	_, err = store.Tokens(ctx)
	require.ErrorIs(t, err, tokenstore.ErrNotFound)
	_, err = store.User(ctx)
	require.ErrorIs(t, err, tokenstore.ErrNotFound)

	_, err = a.Resumes.List(ctx)
	require.NoError(t, err)
	require.Empty(t, b.lastAuth())
}

func TestRegister_FieldErrors(t *testing.T) {
	t.Parallel()

	a, _, _ := newAPI(t)

	_, err := a.Auth.Register(context.Background(), models.RegisterRequest{Email: "a@b.c", Password: "x", Password2: "y"})
	require.ErrorIs(t, err, apierrors.ErrInvalidArgument)

	var apiErr *apierrors.Error
	require.ErrorAs(t, err, &apiErr)
	require.Contains(t, apiErr.Fields, "email")
	require.Contains(t, apiErr.Message, "Passwords do not match.")
}

func TestResumes_UploadListDelete(t *testing.T) {
	t.Parallel()

	a, b, _ := newAPI(t)
	ctx := context.Background()

	res, err := a.Resumes.Upload(ctx, "/home/ada/CV.PDF", strings.NewReader("%PDF-1.4 resume"))
	require.NoError(t, err)
	require.Equal(t, int64(9), res.ID)
	require.Equal(t, "Ada Lovelace", res.Name)
	require.Equal(t, "CV.PDF", b.upload.name)
	require.Equal(t, "%PDF-1.4 resume", b.upload.content)

	list, err := a.Resumes.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, a.Resumes.Delete(ctx, 9))
	require.ErrorIs(t, a.Resumes.Delete(ctx, 10), apierrors.ErrNotFound)
}

func TestResumes_UploadRejects(t *testing.T) {
	t.Parallel()

	a, _, _ := newAPI(t)
	ctx := context.Background()

	_, err := a.Resumes.Upload(ctx, "cv.exe", strings.NewReader("MZ"))
	require.ErrorIs(t, err, apierrors.ErrInvalidArgument)

	_, err = a.Resumes.Upload(ctx, "cv.txt", strings.NewReader("broken"))
	require.ErrorIs(t, err, schema.ErrInvalid)
}

func TestPortfolio_SectionCRUD(t *testing.T) {
	t.Parallel()

	a, _, _ := newAPI(t)
	ctx := context.Background()
	projects := a.Portfolio.Projects

	list, err := projects.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = projects.Create(ctx, models.Project{})
	require.ErrorIs(t, err, apierrors.ErrInvalidArgument)

	created, err := projects.Create(ctx, models.Project{Title: "resume-parser", Technologies: []string{"Go"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)

	updated, err := projects.Update(ctx, created.ID, models.Project{Title: "resume-parser v2"})
	require.NoError(t, err)
	require.Equal(t, "resume-parser v2", updated.Title)

	_, err = projects.Update(ctx, 42, models.Project{Title: "x"})
	require.ErrorIs(t, err, apierrors.ErrNotFound)

	list, err = projects.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, projects.Delete(ctx, created.ID))

	raw, err := a.Portfolio.Raw(models.SectionProjects)
	require.NoError(t, err)
	items, err := raw.List(ctx)
	require.NoError(t, err)
	require.Empty(t, items)

	_, err = a.Portfolio.Raw("gadgets")
	require.ErrorIs(t, err, apierrors.ErrInvalidArgument)
}

func TestCoverLetters(t *testing.T) {
	t.Parallel()

	a, _, _ := newAPI(t)
	ctx := context.Background()

	_, err := a.CoverLetters.Generate(ctx, models.GenerateCoverLetterRequest{Role: " "})
	require.ErrorIs(t, err, apierrors.ErrInvalidArgument)

	cl, err := a.CoverLetters.Generate(ctx, models.GenerateCoverLetterRequest{Role: "SRE", Company: "Acme", ResumeID: 9})
	require.NoError(t, err)
	require.Contains(t, cl.Content, "**SRE** at Acme")
	require.Equal(t, "Acme", cl.Company)
	require.Equal(t, int64(9), cl.ResumeID)

	list, err := a.CoverLetters.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Hi", list[0].Content)
}

func TestChat_Send(t *testing.T) {
	t.Parallel()

	a, b, _ := newAPI(t)
	ctx := context.Background()

	_, err := a.Chat.Send(ctx, "   ", nil)
	require.ErrorIs(t, err, apierrors.ErrInvalidArgument)

	history := []models.ChatMessage{{Role: models.RoleUser, Content: "hi"}, {Role: models.RoleAssistant, Content: "hello"}}
	reply, err := a.Chat.Send(ctx, "what are my skills?", history)
	require.NoError(t, err)
	require.Equal(t, "echo: what are my skills?", reply)
	require.Len(t, b.chat.History, 2)
	require.Equal(t, models.RoleAssistant, b.chat.History[1].Role)
}

func TestDecodeList(t *testing.T) {
	t.Parallel()

	got, err := decodeList[int]([]byte(`[1,2]`))
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, got)

	got, err = decodeList[int]([]byte(`{"count":2,"results":[3,4]}`))
	require.NoError(t, err)
	require.Equal(t, []int{3, 4}, got)

	got, err = decodeList[int]([]byte(`null`))
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = decodeList[int](nil)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = decodeList[int]([]byte(`"x"`))
	require.Error(t, err)
}

func TestItemPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/resumes/7/", itemPath("/resumes/", 7))
	require.Equal(t, "/portfolio/skills/12/", itemPath("/portfolio/skills", 12))
}
