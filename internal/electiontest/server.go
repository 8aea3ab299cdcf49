// Package electiontest provides an in-process fake of the election backend
// for integration tests. It implements the REST surface the client consumes,
// keeps its state in memory, and counts requests per path so tests can assert
// which reads were served from cache and which hit the network.
package electiontest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"campusvote/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

type userRecord struct {
	user     domain.User
	password string
}

// Server is the fake election backend.
type Server struct {
	mu         sync.Mutex
	secret     []byte
	positions  []domain.Position
	users      map[string]*userRecord // by student id
	votes      map[string]map[int]int // student id -> position id -> candidate id
	requests   map[string]int
	nextUserID int
	nextVoteID int
	rejectAuth bool
	failAI     bool
}

// NewServer creates a fake backend seeded with two positions and their
// candidates.
func NewServer() *Server {
	return &Server{
		secret: []byte("electiontest-secret"),
		positions: []domain.Position{
			{
				ID: 1, Name: "President", Description: "Student body president", IsActive: true,
				Candidates: []domain.Candidate{
					{ID: 11, Name: "Alice Moreno", Bio: "Third-year economics", Position: 1, PositionName: "President"},
					{ID: 12, Name: "Ben Osei", Bio: "Debate club captain", Position: 1, PositionName: "President"},
				},
			},
			{
				ID: 2, Name: "Treasurer", Description: "", IsActive: true,
				Candidates: []domain.Candidate{
					{ID: 21, Name: "Chau Lin", Bio: "", Position: 2, PositionName: "Treasurer"},
					{ID: 22, Name: "Dmitri Novak", Bio: "Finance society", Position: 2, PositionName: "Treasurer"},
				},
			},
		},
		users:      make(map[string]*userRecord),
		votes:      make(map[string]map[int]int),
		requests:   make(map[string]int),
		nextUserID: 1,
		nextVoteID: 1,
	}
}

// SeedUser registers a user directly, bypassing the register endpoint.
func (s *Server) SeedUser(studentID, password, nickname string) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUser(studentID, password, nickname, studentID+"@campus.test")
}

// IssueToken mints a signed access token for a seeded user.
func (s *Server) IssueToken(studentID string) string {
	return s.mintToken(studentID, time.Hour)
}

// IssueExpiredToken mints a token whose exp claim is already in the past.
func (s *Server) IssueExpiredToken(studentID string) string {
	return s.mintToken(studentID, -time.Hour)
}

// SetRejectAuth makes every authenticated endpoint answer 401, simulating a
// revoked or expired credential mid-session.
func (s *Server) SetRejectAuth(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectAuth = reject
}

// SetAIFailing makes the AI endpoints answer 500, simulating a provider
// outage or missing credential.
func (s *Server) SetAIFailing(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAI = fail
}

// Requests reports how many requests have hit the given path.
func (s *Server) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

// Router builds the REST surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.countRequests)

	r.Post("/auth/register/", s.handleRegister)
	r.Post("/auth/login/", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/auth/profile/", s.handleProfile)
		r.Get("/positions/", s.handlePositions)
		r.Get("/candidates/", s.handleCandidates)
		r.Get("/votes/status/", s.handleVotingStatus)
		r.Get("/votes/my-votes/", s.handleMyVotes)
		r.Post("/vote/", s.handleCastVote)
		r.Get("/results/", s.handleResults)
		r.Get("/results/{positionID}/", s.handlePositionResult)
		r.Get("/analytics/stats/", s.handleStats)
		r.Get("/ai/summary/", s.handleAI("summary"))
		r.Get("/ai/prediction/", s.handleAI("prediction"))
		r.Get("/ai/turnout/", s.handleAI("analysis"))
	})

	return r
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type ctxKey string

const studentIDKey ctxKey = "student_id"

func withStudentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, studentIDKey, id)
}

func studentIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(studentIDKey).(string)
	return id
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		reject := s.rejectAuth
		s.mu.Unlock()

		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if reject || token == "" || token == header {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
			})
			return
		}

		claims := jwt.RegisteredClaims{}
		parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		})
		if err != nil || !parsed.Valid {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
			})
			return
		}

		r = r.WithContext(withStudentID(r.Context(), claims.Subject))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if req.Password != req.PasswordConfirm {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"password": {"Password fields didn't match."},
		})
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.StudentID]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"student_id": {"A user with this student ID already exists."},
		})
		return
	}
	user := s.addUser(req.StudentID, req.Password, req.Nickname, req.Email)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, domain.AuthResponse{
		Message: "Registration successful",
		User:    user,
		Tokens: domain.TokenPair{
			Access:  s.mintToken(req.StudentID, time.Hour),
			Refresh: s.mintToken(req.StudentID, 24*time.Hour),
		},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	s.mu.Lock()
	rec, ok := s.users[req.StudentID]
	s.mu.Unlock()
	if !ok || rec.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "Invalid student ID or password",
		})
		return
	}

	writeJSON(w, http.StatusOK, domain.AuthResponse{
		Message: "Login successful",
		User:    rec.user,
		Tokens: domain.TokenPair{
			Access:  s.mintToken(req.StudentID, time.Hour),
			Refresh: s.mintToken(req.StudentID, 24*time.Hour),
		},
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rec, ok := s.users[studentIDFrom(r)]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Profile not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec.user)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.positions)
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	filter := 0
	if raw := r.URL.Query().Get("position"); raw != "" {
		filter, _ = strconv.Atoi(raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	candidates := []domain.Candidate{}
	for _, p := range s.positions {
		if filter > 0 && p.ID != filter {
			continue
		}
		candidates = append(candidates, p.Candidates...)
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleVotingStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	voted := s.votes[studentIDFrom(r)]
	status := domain.VotingStatus{TotalPositions: len(s.positions)}
	for _, p := range s.positions {
		_, hasVoted := voted[p.ID]
		if hasVoted {
			status.VotedCount++
		}
		status.VotingStatus = append(status.VotingStatus, domain.PositionStatus{
			PositionID:   p.ID,
			PositionName: p.Name,
			HasVoted:     hasVoted,
		})
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleMyVotes(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	votes := []domain.Vote{}
	id := 0
	for positionID, candidateID := range s.votes[studentIDFrom(r)] {
		id++
		votes = append(votes, domain.Vote{
			ID:            id,
			Candidate:     candidateID,
			Position:      positionID,
			Timestamp:     time.Now().UTC(),
			CandidateName: s.candidateName(candidateID),
			PositionName:  s.positionName(positionID),
		})
	}
	writeJSON(w, http.StatusOK, votes)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req domain.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	position := s.findPosition(req.Position)
	if position == nil || !position.IsActive {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"position": {"Invalid position."},
		})
		return
	}
	if !positionHasCandidate(position, req.Candidate) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"candidate": {"Candidate does not belong to this position."},
		})
		return
	}

	studentID := studentIDFrom(r)
	if _, already := s.votes[studentID][req.Position]; already {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "You have already voted for this position.",
		})
		return
	}

	if s.votes[studentID] == nil {
		s.votes[studentID] = make(map[int]int)
	}
	s.votes[studentID][req.Position] = req.Candidate

	vote := domain.Vote{
		ID:            s.nextVoteID,
		Candidate:     req.Candidate,
		Position:      req.Position,
		Timestamp:     time.Now().UTC(),
		CandidateName: s.candidateName(req.Candidate),
		PositionName:  position.Name,
	}
	s.nextVoteID++

	writeJSON(w, http.StatusCreated, domain.VoteResponse{
		Message: "Vote cast successfully",
		Vote:    vote,
	})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := domain.Results{Results: []domain.PositionResult{}}
	for _, p := range s.positions {
		results.Results = append(results.Results, s.tally(&p))
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handlePositionResult(w http.ResponseWriter, r *http.Request) {
	positionID, _ := strconv.Atoi(chi.URLParam(r, "positionID"))

	s.mu.Lock()
	defer s.mu.Unlock()

	position := s.findPosition(positionID)
	if position == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Position not found"})
		return
	}
	writeJSON(w, http.StatusOK, s.tally(position))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totalVotes := 0
	voters := 0
	for _, byPosition := range s.votes {
		if len(byPosition) > 0 {
			voters++
		}
		totalVotes += len(byPosition)
	}
	candidates := 0
	for _, p := range s.positions {
		candidates += len(p.Candidates)
	}
	turnout := 0.0
	if len(s.users) > 0 {
		turnout = float64(voters) / float64(len(s.users)) * 100
	}

	writeJSON(w, http.StatusOK, domain.Stats{
		TotalRegisteredUsers:   len(s.users),
		TotalVoters:            voters,
		VoterTurnoutPercentage: turnout,
		TotalVotesCast:         totalVotes,
		PositionsCount:         len(s.positions),
		CandidatesCount:        candidates,
	})
}

func (s *Server) handleAI(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		failing := s.failAI
		s.mu.Unlock()
		if failing {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Failed to generate AI " + field,
			})
			return
		}
		insight := map[string]interface{}{
			field: "The election remains closely contested across all positions.",
			"data": map[string]interface{}{
				"positions": len(s.positions),
			},
		}
		writeJSON(w, http.StatusOK, insight)
	}
}

func (s *Server) addUser(studentID, password, nickname, email string) domain.User {
	user := domain.User{
		ID:        s.nextUserID,
		Username:  studentID,
		StudentID: studentID,
		Nickname:  nickname,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	s.nextUserID++
	s.users[studentID] = &userRecord{user: user, password: password}
	return user
}

func (s *Server) mintToken(studentID string, validFor time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   studentID,
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(validFor)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("electiontest: signing token: %v", err))
	}
	return signed
}

func positionHasCandidate(p *domain.Position, candidateID int) bool {
	for _, c := range p.Candidates {
		if c.ID == candidateID {
			return true
		}
	}
	return false
}

func (s *Server) findPosition(id int) *domain.Position {
	for i := range s.positions {
		if s.positions[i].ID == id {
			return &s.positions[i]
		}
	}
	return nil
}

func (s *Server) candidateName(id int) string {
	for _, p := range s.positions {
		for _, c := range p.Candidates {
			if c.ID == id {
				return c.Name
			}
		}
	}
	return ""
}

func (s *Server) positionName(id int) string {
	if p := s.findPosition(id); p != nil {
		return p.Name
	}
	return ""
}

// tally computes the ordered result set for one position from the recorded
// votes, winner included when any vote exists.
func (s *Server) tally(p *domain.Position) domain.PositionResult {
	counts := make(map[int]int)
	total := 0
	for _, byPosition := range s.votes {
		if candidateID, ok := byPosition[p.ID]; ok {
			counts[candidateID]++
			total++
		}
	}

	result := domain.PositionResult{
		PositionID:   p.ID,
		PositionName: p.Name,
		TotalVotes:   total,
	}
	for _, c := range p.Candidates {
		percentage := 0.0
		if total > 0 {
			percentage = float64(counts[c.ID]) / float64(total) * 100
		}
		result.Candidates = append(result.Candidates, domain.CandidateResult{
			ID:         c.ID,
			Name:       c.Name,
			Bio:        c.Bio,
			VoteCount:  counts[c.ID],
			Percentage: percentage,
		})
	}
	// Order by votes, highest first.
	for i := 0; i < len(result.Candidates); i++ {
		for j := i + 1; j < len(result.Candidates); j++ {
			if result.Candidates[j].VoteCount > result.Candidates[i].VoteCount {
				result.Candidates[i], result.Candidates[j] = result.Candidates[j], result.Candidates[i]
			}
		}
	}
	if total > 0 {
		winner := result.Candidates[0]
		result.Winner = &winner
	}
	return result
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
