package backendtest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

type userContextKey struct{}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshBody struct {
	RefreshToken string `json:"refreshToken"`
}

type userBody struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// authAnswer renders body flat or nested under "data".
func (s *Server) authAnswer(w http.ResponseWriter, body map[string]any) {
	s.mu.Lock()
	wrap := s.wrap
	s.mu.Unlock()

	if wrap {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": body})
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) userBody(username string) userBody {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.users[username]
	if !ok {
		return userBody{ID: username, Name: username}
	}
	return userBody{ID: acc.ID, Name: acc.Name, Email: acc.Email, Roles: acc.Roles}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.loginCalls.Add(1)

	var in credentialsBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Username == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	s.mu.Lock()
	acc, ok := s.users[in.Username]
	gen := s.gen
	s.mu.Unlock()
	if !ok || !acc.hash.verify(in.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	access, err := s.issueAccess(in.Username, gen)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	rt := newRefreshToken()
	s.mu.Lock()
	s.refresh[rt] = in.Username
	s.mu.Unlock()

	s.authAnswer(w, map[string]any{
		"accessToken":  access,
		"refreshToken": rt,
		"user":         s.userBody(in.Username),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	s.mu.Lock()
	hold := s.hold
	s.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	fail := s.fail
	s.mu.Unlock()
	if fail != 0 {
		writeError(w, fail, "refresh rejected")
		return
	}

	var in refreshBody
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	s.mu.Lock()
	username, ok := s.refresh[in.RefreshToken]
	gen := s.gen
	var next *TokenPair
	if ok && len(s.queued) > 0 {
		p := s.queued[0]
		s.queued = s.queued[1:]
		next = &p
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, errUnknownToken.Error())
		return
	}

	body := map[string]any{}
	if next != nil {
		s.mu.Lock()
		s.static[next.AccessToken] = username
		if next.RefreshToken != "" && next.RefreshToken != in.RefreshToken {
			delete(s.refresh, in.RefreshToken)
			s.refresh[next.RefreshToken] = username
		}
		s.mu.Unlock()
		body["accessToken"] = next.AccessToken
		if next.RefreshToken != "" {
			body["refreshToken"] = next.RefreshToken
		}
		s.authAnswer(w, body)
		return
	}

	access, err := s.issueAccess(username, gen)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	body["accessToken"] = access

	if !s.opts.KeepRefreshToken {
		rt := newRefreshToken()
		s.mu.Lock()
		delete(s.refresh, in.RefreshToken)
		s.refresh[rt] = username
		s.mu.Unlock()
		body["refreshToken"] = rt
	}
	s.authAnswer(w, body)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.logoutCalls.Add(1)

	var in refreshBody
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in.RefreshToken != "" {
		s.mu.Lock()
		delete(s.refresh, in.RefreshToken)
		s.mu.Unlock()
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireAuth records the Authorization header and rejects anything that is not a
// current access token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")

		s.mu.Lock()
		s.auths[r.URL.Path] = append(s.auths[r.URL.Path], header)
		s.mu.Unlock()

		token, ok := bearerToken(header)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		username, ok := s.validAccess(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "token expired")
			return
		}

		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.mu.Unlock()

		ctx := context.WithValue(r.Context(), userContextKey{}, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) validAccess(token string) (string, bool) {
	s.mu.Lock()
	username, ok := s.static[token]
	gen := s.gen
	s.mu.Unlock()
	if ok {
		return username, true
	}

	claims, err := s.parseAccess(token)
	if err != nil || claims.Gen != gen {
		return "", false
	}
	return claims.Subject, true
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	username, _ := r.Context().Value(userContextKey{}).(string)
	writeJSON(w, http.StatusOK, s.userBody(username))
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if r.Method == http.MethodDelete {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "method": r.Method})
}

func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// handleStatus answers with the status code in the path.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(mux.Vars(r)["code"])
	if err != nil || code < 100 || code > 599 {
		writeError(w, http.StatusBadRequest, "bad status")
		return
	}
	if code < http.StatusBadRequest {
		writeJSON(w, code, map[string]int{"status": code})
		return
	}
	writeError(w, code, http.StatusText(code))
}

// handleSlow sleeps for the "delay" duration before answering.
func (s *Server) handleSlow(w http.ResponseWriter, r *http.Request) {
	d, _ := time.ParseDuration(r.URL.Query().Get("delay"))
	select {
	case <-time.After(d):
	case <-r.Context().Done():
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"slept": d.String()})
}
