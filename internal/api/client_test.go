package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/typemaster/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Options{BaseURL: server.URL + "/", RateLimit: 1000})
}

var alice = model.Session{Username: "alice", Token: "tok123"}

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		c := New(Options{})
		if c.BaseURL() != DefaultBaseURL {
			t.Errorf("expected default base url, got %s", c.BaseURL())
		}
		if c.httpClient.Timeout != DefaultTimeout {
			t.Errorf("expected default timeout, got %v", c.httpClient.Timeout)
		}
	})

	t.Run("Trims Trailing Slash", func(t *testing.T) {
		c := New(Options{BaseURL: "http://example.com/"})
		if c.BaseURL() != "http://example.com" {
			t.Errorf("unexpected base url %s", c.BaseURL())
		}
	})

	t.Run("AvatarURL", func(t *testing.T) {
		c := New(Options{BaseURL: "http://example.com"})
		if got := c.AvatarURL("/media/a.png"); got != "http://example.com/media/a.png" {
			t.Errorf("unexpected avatar url %s", got)
		}
		if got := c.AvatarURL("media/a.png"); got != "http://example.com/media/a.png" {
			t.Errorf("unexpected avatar url %s", got)
		}
		if got := c.AvatarURL("https://cdn.test/a.png"); got != "https://cdn.test/a.png" {
			t.Errorf("absolute url should pass through, got %s", got)
		}
		if got := c.AvatarURL(""); got != "" {
			t.Errorf("expected empty avatar url, got %s", got)
		}
	})
}

func TestAuth(t *testing.T) {
	t.Run("Login Returns Session", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/login/" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			if r.Header.Get(requestIDHeader) == "" {
				t.Errorf("expected request id header")
			}
			var body credentials
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if body.Username != "alice" || body.Password != "secret" {
				t.Errorf("unexpected credentials %+v", body)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"message":"ok","token":"tok123","user":{"id":1,"username":"alice"}}`)
		})
		s, err := c.Login(context.Background(), "alice", "secret")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if s != alice {
			t.Fatalf("unexpected session %+v", s)
		}
	})

	t.Run("Login Bad Credentials", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Invalid credentials"}`)
		})
		_, err := c.Login(context.Background(), "alice", "wrong")
		if !errors.Is(err, ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
		if msg := UserMessage(err, "Invalid username or password"); msg != "Invalid credentials" {
			t.Fatalf("unexpected message %q", msg)
		}
	})

	t.Run("Signup Field Error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"username":["A user with that username already exists."]}`)
		})
		err := c.Signup(context.Background(), "alice", "pw")
		if !errors.Is(err, ErrRejected) {
			t.Fatalf("expected ErrRejected, got %v", err)
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %T", err)
		}
		if apiErr.Field("username") != "A user with that username already exists." {
			t.Fatalf("unexpected field error %q", apiErr.Field("username"))
		}
	})

	t.Run("Logout Sends Token", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/logout/" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Token tok123" {
				t.Errorf("unexpected auth header %q", got)
			}
			w.WriteHeader(http.StatusNoContent)
		})
		if err := c.Logout(context.Background(), alice); err != nil {
			t.Fatalf("logout: %v", err)
		}
	})
}

func TestResults(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/results/" || r.URL.Query().Get("username") != "alice" {
				t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
			}
			_, _ = io.WriteString(w, `[
				{"wpm":60,"accuracy":90,"duration":60,"difficulty":"Easy","created_at":"2025-01-02T03:04:05.123456Z"},
				{"wpm":80,"accuracy":100,"duration":42,"difficulty":"Hard","created_at":"2025-01-03T03:04:05Z"}
			]`)
		})
		results, err := c.ListResults(context.Background(), alice)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[1].WPM != 80 || results[1].Difficulty != model.DifficultyHard || results[1].Duration != 42 {
			t.Fatalf("unexpected result %+v", results[1])
		}
		if results[0].CreatedAt.Year() != 2025 {
			t.Fatalf("expected parsed created_at, got %v", results[0].CreatedAt)
		}
	})

	t.Run("List Requires Session", func(t *testing.T) {
		c := New(Options{BaseURL: "http://127.0.0.1:1"})
		if _, err := c.ListResults(context.Background(), model.Session{}); !errors.Is(err, ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Save", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/results/save/" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var sub model.ResultSubmission
			if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
				t.Errorf("decode: %v", err)
			}
			if sub.Username != "alice" || sub.WPM != 42 || sub.Accuracy != 95 || sub.Duration != 60 || sub.Difficulty != model.DifficultyMedium {
				t.Errorf("unexpected submission %+v", sub)
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":7}`)
		})
		sub := model.ResultSubmission{WPM: 42, Accuracy: 95, Duration: 60, Difficulty: model.DifficultyMedium}
		if err := c.SaveResult(context.Background(), alice, sub); err != nil {
			t.Fatalf("save: %v", err)
		}
	})

	t.Run("Clear Sends Body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Path != "/api/results/clear/" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			body, _ := io.ReadAll(r.Body)
			if strings.TrimSpace(string(body)) != `{"username":"alice"}` {
				t.Errorf("unexpected body %s", body)
			}
			w.WriteHeader(http.StatusNoContent)
		})
		if err := c.ClearResults(context.Background(), alice); err != nil {
			t.Fatalf("clear: %v", err)
		}
	})

	t.Run("Typing Text", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("difficulty"); got != "hard" {
				t.Errorf("expected lowercase difficulty, got %q", got)
			}
			_, _ = io.WriteString(w, `{"content":"cat dog bird"}`)
		})
		text, err := c.TypingText(context.Background(), model.DifficultyHard)
		if err != nil {
			t.Fatalf("typing text: %v", err)
		}
		if text != "cat dog bird" {
			t.Fatalf("unexpected text %q", text)
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		_, err := c.TypingText(context.Background(), model.DifficultyEasy)
		if !errors.Is(err, ErrServer) {
			t.Fatalf("expected ErrServer, got %v", err)
		}
	})

	t.Run("Malformed Body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `not json`)
		})
		_, err := c.ListResults(context.Background(), alice)
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("expected ErrDecode, got %v", err)
		}
	})
}

func TestNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := New(Options{BaseURL: url})
	_, err := c.TypingText(context.Background(), model.DifficultyEasy)
	if !IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
	if msg := UserMessage(err, "fallback"); msg != "Network error" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestProfile(t *testing.T) {
	t.Run("Merges Info And Stats", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/profile/":
				_, _ = io.WriteString(w, `{"username":"alice","bio":"hi","profile_image":"/media/a.png"}`)
			case "/api/profile/stats/":
				_, _ = io.WriteString(w, `{"best_wpm":88,"best_accuracy":97,"preferred_difficulty":"Medium"}`)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		})
		p, err := c.Profile(context.Background(), alice)
		if err != nil {
			t.Fatalf("profile: %v", err)
		}
		if p.Username != "alice" || p.Bio != "hi" || p.AvatarRef != "/media/a.png" {
			t.Fatalf("unexpected profile %+v", p.Profile)
		}
		if p.BestWPM != 88 || p.BestAccuracy != 97 || p.PreferredDifficulty != "Medium" {
			t.Fatalf("unexpected stats %+v", p)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Not found."}`)
		})
		_, err := c.Profile(context.Background(), alice)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update Multipart", func(t *testing.T) {
		imagePath := filepath.Join(t.TempDir(), "avatar.png")
		if err := os.WriteFile(imagePath, []byte("png-bytes"), 0o644); err != nil {
			t.Fatalf("write image: %v", err)
		}
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut || r.URL.Query().Get("username") != "alice" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.String())
			}
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			if got := r.FormValue("bio"); got != "new bio" {
				t.Errorf("unexpected bio %q", got)
			}
			file, header, err := r.FormFile("profile_image")
			if err != nil {
				t.Errorf("expected image part: %v", err)
			} else {
				data, _ := io.ReadAll(file)
				_ = file.Close()
				if header.Filename != "avatar.png" || string(data) != "png-bytes" {
					t.Errorf("unexpected image %s %q", header.Filename, data)
				}
			}
			_, _ = io.WriteString(w, `{"username":"alice","bio":"new bio","profile_image":"/media/avatar.png"}`)
		})
		updated, err := c.UpdateProfile(context.Background(), alice, model.ProfileUpdate{Bio: "new bio", ImagePath: imagePath})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.AvatarRef != "/media/avatar.png" || updated.Bio != "new bio" {
			t.Fatalf("unexpected profile %+v", updated)
		}
	})

	t.Run("Update Missing Image", func(t *testing.T) {
		c := New(Options{BaseURL: "http://127.0.0.1:1"})
		_, err := c.UpdateProfile(context.Background(), alice, model.ProfileUpdate{ImagePath: filepath.Join(t.TempDir(), "none.png")})
		if err == nil || IsNetwork(err) {
			t.Fatalf("expected local file error, got %v", err)
		}
	})
}

func TestAPIErrorMessage(t *testing.T) {
	err := newAPIError(http.StatusBadRequest, []byte(`{"password":["too short"],"detail":"bad input"}`))
	if err.Message() != "bad input" {
		t.Fatalf("detail should win, got %q", err.Message())
	}
	err = newAPIError(http.StatusBadRequest, []byte(`{"password":["too short"]}`))
	if err.Message() != "too short" {
		t.Fatalf("expected field message, got %q", err.Message())
	}
	err = newAPIError(http.StatusBadGateway, []byte(`<html>bad gateway</html>`))
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected ErrServer")
	}
	if UserMessage(newAPIError(http.StatusBadRequest, nil), "fallback") != "fallback" {
		t.Fatalf("expected fallback for empty body")
	}
}
