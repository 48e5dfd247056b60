package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"scanhub/internal/api"
	"scanhub/internal/audit"
	"scanhub/internal/config"
	"scanhub/internal/logging"
	"scanhub/internal/store"
	"scanhub/internal/workflow"
)

const maxRequestBody = 1 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", srv.handleHealth)

	mux.HandleFunc("GET /api/teams", srv.handleListTeams)
	mux.HandleFunc("POST /api/teams", srv.handleCreateTeam)
	mux.HandleFunc("GET /api/teams/{id}", srv.handleGetTeam)
	mux.HandleFunc("POST /api/teams/{id}/status", srv.handleSetTeamStatus)
	mux.HandleFunc("GET /api/teams/{id}/members", srv.handleListMembers)
	mux.HandleFunc("POST /api/teams/{id}/members", srv.handleAddMember)
	mux.HandleFunc("DELETE /api/teams/{id}/members/{userID}", srv.handleRemoveMember)

	mux.HandleFunc("GET /api/projects", srv.handleListProjects)
	mux.HandleFunc("POST /api/projects", srv.handleCreateProject)
	mux.HandleFunc("GET /api/projects/{id}", srv.handleGetProject)
	mux.HandleFunc("GET /api/projects/{id}/glossary", srv.handleListTerms)
	mux.HandleFunc("PUT /api/projects/{id}/glossary", srv.handleUpsertTerm)
	mux.HandleFunc("DELETE /api/projects/{id}/glossary/{term}", srv.handleDeleteTerm)

	mux.HandleFunc("GET /api/chapters", srv.handleListChapters)
	mux.HandleFunc("POST /api/chapters", srv.handleCreateChapter)
	mux.HandleFunc("GET /api/chapters/{id}", srv.handleGetChapter)
	mux.HandleFunc("GET /api/chapters/{id}/actions", srv.handleChapterActions)
	mux.HandleFunc("GET /api/chapters/{id}/transitions", srv.handleChapterHistory)
	mux.HandleFunc("POST /api/chapters/{id}/transitions", srv.handleChapterTransition)

	mux.HandleFunc("GET /api/audit", srv.handleAudit)

	srv.server = &http.Server{
		Handler:           authMiddleware(cfg.Paths.APIToken, mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr reports the bound listen address once start succeeded.
func (s *apiServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var projectID int64
	if value := strings.TrimSpace(r.URL.Query().Get("project")); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "bad_request", "invalid project id", false)
			return
		}
		projectID = parsed
	}
	summary, err := s.daemon.store.Health(r.Context(), projectID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromHealth(summary))
}

type createTeamRequest struct {
	Name      string `json:"name"`
	CreatorID int64  `json:"creatorId"`
}

func (s *apiServer) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.CreatorID <= 0 {
		s.writeError(w, http.StatusBadRequest, "bad_request", "name and creatorId are required", false)
		return
	}

	team, err := s.daemon.store.CreateTeam(r.Context(), strings.TrimSpace(req.Name), req.CreatorID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if err := s.daemon.store.AddMember(r.Context(), team.ID, req.CreatorID, workflow.RoleLeader); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.audit(r.Context(), audit.Event{
		ActorID:    req.CreatorID,
		Action:     audit.ActionTeamCreated,
		ObjectType: "team",
		ObjectID:   team.ID,
		Details:    map[string]any{"name": team.Name},
	})
	s.writeJSON(w, http.StatusCreated, api.FromTeam(team))
}

func (s *apiServer) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.daemon.store.ListTeams(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]api.Team, 0, len(teams))
	for _, team := range teams {
		out = append(out, api.FromTeam(team))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	team, err := s.daemon.store.TeamByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if team == nil {
		s.writeError(w, http.StatusNotFound, "not_found", "team not found", false)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromTeam(team))
}

type setStatusRequest struct {
	Status  string `json:"status"`
	ActorID int64  `json:"actorId"`
}

func (s *apiServer) handleSetTeamStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req setStatusRequest
	if !s.decode(w, r, &req) {
		return
	}
	status, valid := store.ParseTeamStatus(req.Status)
	if !valid {
		s.writeError(w, http.StatusBadRequest, "bad_request", "unknown team status", false)
		return
	}
	if err := s.daemon.store.SetTeamStatus(r.Context(), id, status); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.audit(r.Context(), audit.Event{
		ActorID:    req.ActorID,
		Action:     audit.ActionTeamStatusChanged,
		ObjectType: "team",
		ObjectID:   id,
		Details:    map[string]any{"status": string(status)},
	})
	s.writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (s *apiServer) handleListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	members, err := s.daemon.store.Members(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]api.Member, 0, len(members))
	for _, member := range members {
		out = append(out, api.FromMembership(member))
	}
	s.writeJSON(w, http.StatusOK, out)
}

type addMemberRequest struct {
	UserID  int64  `json:"userId"`
	Role    string `json:"role"`
	ActorID int64  `json:"actorId"`
}

func (s *apiServer) handleAddMember(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req addMemberRequest
	if !s.decode(w, r, &req) {
		return
	}
	role, valid := workflow.ParseRole(req.Role)
	if !valid || req.UserID <= 0 {
		s.writeError(w, http.StatusBadRequest, "bad_request", "userId and a known role are required", false)
		return
	}
	if err := s.daemon.store.AddMember(r.Context(), id, req.UserID, role); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.audit(r.Context(), audit.Event{
		ActorID:    req.ActorID,
		Action:     audit.ActionMemberAdded,
		ObjectType: "team",
		ObjectID:   id,
		Details:    map[string]any{"user_id": req.UserID, "role": string(role)},
	})
	s.writeJSON(w, http.StatusCreated, api.Member{TeamID: id, UserID: req.UserID, Role: string(role)})
}

func (s *apiServer) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := s.pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := s.daemon.store.RemoveMember(r.Context(), id, userID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.audit(r.Context(), audit.Event{
		Action:     audit.ActionMemberRemoved,
		ObjectType: "team",
		ObjectID:   id,
		Details:    map[string]any{"user_id": userID},
	})
	w.WriteHeader(http.StatusNoContent)
}

type createProjectRequest struct {
	TeamID      int64  `json:"teamId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
	AgeRating   string `json:"ageRating"`
	ActorID     int64  `json:"actorId"`
}

func (s *apiServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.TeamID <= 0 || strings.TrimSpace(req.Title) == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "teamId and title are required", false)
		return
	}
	kind := store.KindManga
	if req.Kind != "" {
		parsed, valid := store.ParseProjectKind(req.Kind)
		if !valid {
			s.writeError(w, http.StatusBadRequest, "bad_request", "unknown project kind", false)
			return
		}
		kind = parsed
	}
	rating := store.RatingGeneral
	if req.AgeRating != "" {
		parsed, valid := store.ParseAgeRating(req.AgeRating)
		if !valid {
			s.writeError(w, http.StatusBadRequest, "bad_request", "unknown age rating", false)
			return
		}
		rating = parsed
	}

	team, err := s.daemon.store.TeamByID(r.Context(), req.TeamID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if team == nil {
		s.writeError(w, http.StatusNotFound, "not_found", "team not found", false)
		return
	}

	project, err := s.daemon.store.CreateProject(r.Context(), req.TeamID, strings.TrimSpace(req.Title), strings.TrimSpace(req.Description), kind, rating)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.audit(r.Context(), audit.Event{
		ActorID:    req.ActorID,
		Action:     audit.ActionProjectCreated,
		ObjectType: "project",
		ObjectID:   project.ID,
		Details:    map[string]any{"team_id": project.TeamID, "title": project.Title},
	})
	s.writeJSON(w, http.StatusCreated, api.FromProject(project))
}

func (s *apiServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	var teamID int64
	if value := strings.TrimSpace(r.URL.Query().Get("team")); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "bad_request", "invalid team id", false)
			return
		}
		teamID = parsed
	}
	projects, err := s.daemon.store.ListProjects(r.Context(), teamID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]api.Project, 0, len(projects))
	for _, project := range projects {
		out = append(out, api.FromProject(project))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	project, err := s.daemon.store.ProjectByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if project == nil {
		s.writeError(w, http.StatusNotFound, "not_found", "project not found", false)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromProject(project))
}

type createChapterRequest struct {
	ProjectID int64  `json:"projectId"`
	Title     string `json:"title"`
}

func (s *apiServer) handleCreateChapter(w http.ResponseWriter, r *http.Request) {
	var req createChapterRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.ProjectID <= 0 || strings.TrimSpace(req.Title) == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "projectId and title are required", false)
		return
	}
	project, err := s.daemon.store.ProjectByID(r.Context(), req.ProjectID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if project == nil {
		s.writeError(w, http.StatusNotFound, "not_found", "project not found", false)
		return
	}
	chapter, err := s.daemon.store.CreateChapter(r.Context(), req.ProjectID, strings.TrimSpace(req.Title))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.FromChapter(chapter))
}

func (s *apiServer) handleListChapters(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter store.ChapterFilter
	if value := strings.TrimSpace(query.Get("project")); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "bad_request", "invalid project id", false)
			return
		}
		filter.ProjectID = parsed
	}
	for _, value := range query["stage"] {
		stage, valid := workflow.ParseStage(value)
		if !valid {
			s.writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("unknown stage %q", value), false)
			return
		}
		filter.Stages = append(filter.Stages, stage)
	}

	chapters, err := s.daemon.store.ListChapters(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]api.Chapter, 0, len(chapters))
	for _, chapter := range chapters {
		out = append(out, api.FromChapter(chapter))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleGetChapter(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	chapter, err := s.daemon.store.ChapterByID(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if chapter == nil {
		s.writeError(w, http.StatusNotFound, "not_found", "chapter not found", false)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromChapter(chapter))
}

func (s *apiServer) handleChapterActions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	roles, err := s.daemon.engine.ActionableRoles(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"actionableRoles": names})
}

func (s *apiServer) handleChapterHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	transitions, err := s.daemon.chapters.History(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, transitions)
}

func (s *apiServer) handleChapterTransition(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req api.TransitionRequest
	if !s.decode(w, r, &req) {
		return
	}
	chapter, err := s.daemon.chapters.RequestTransition(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chapter)
}

func (s *apiServer) handleListTerms(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	terms, err := s.daemon.store.TermsForProject(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]api.GlossaryTerm, 0, len(terms))
	for _, term := range terms {
		out = append(out, api.FromGlossaryTerm(term))
	}
	s.writeJSON(w, http.StatusOK, out)
}

type upsertTermRequest struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	ActorID    int64  `json:"actorId"`
}

func (s *apiServer) handleUpsertTerm(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req upsertTermRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Term) == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "term is required", false)
		return
	}
	term, err := s.daemon.store.UpsertTerm(r.Context(), id, strings.TrimSpace(req.Term), req.Definition, req.ActorID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.audit(r.Context(), audit.Event{
		ActorID:    req.ActorID,
		Action:     audit.ActionTermUpserted,
		ObjectType: "glossary_term",
		ObjectID:   term.ID,
		Details:    map[string]any{"project_id": id, "term": term.Term},
	})
	s.writeJSON(w, http.StatusOK, api.FromGlossaryTerm(term))
}

func (s *apiServer) handleDeleteTerm(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	name := strings.TrimSpace(r.PathValue("term"))
	if name == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "term is required", false)
		return
	}
	if err := s.daemon.store.DeleteTerm(r.Context(), id, name); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.audit(r.Context(), audit.Event{
		Action:     audit.ActionTermDeleted,
		ObjectType: "glossary_term",
		Details:    map[string]any{"project_id": id, "term": name},
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleAudit(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if value := strings.TrimSpace(r.URL.Query().Get("limit")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "bad_request", "invalid limit", false)
			return
		}
		limit = parsed
	}
	entries, err := s.daemon.store.RecentAudit(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]api.AuditEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, api.FromAuditEntry(entry))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) audit(ctx context.Context, event audit.Event) {
	if err := s.daemon.sink.Record(ctx, event); err != nil {
		s.log().Warn("audit record failed",
			logging.String("action", event.Action),
			logging.Error(err))
	}
}

func (s *apiServer) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid %s", name), false)
		return 0, false
	}
	return id, true
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := decoder.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "malformed JSON body", false)
		return false
	}
	return true
}

// writeServiceError translates the workflow error taxonomy into HTTP status
// codes. Conflicts carry a retryable flag so clients know a plain re-issue
// may succeed.
func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, api.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, "bad_request", err.Error(), false)
	case errors.Is(err, workflow.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", err.Error(), false)
	case errors.Is(err, workflow.ErrUnauthorizedRole):
		s.writeError(w, http.StatusForbidden, "unauthorized_role", err.Error(), false)
	case errors.Is(err, workflow.ErrIllegalTransition):
		s.writeError(w, http.StatusConflict, "illegal_transition", err.Error(), false)
	case errors.Is(err, workflow.ErrPrerequisiteNotMet):
		s.writeError(w, http.StatusConflict, "prerequisite_not_met", err.Error(), false)
	case errors.Is(err, workflow.ErrConflict):
		s.writeError(w, http.StatusConflict, "conflict", err.Error(), true)
	default:
		s.writeError(w, http.StatusInternalServerError, "internal", err.Error(), false)
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, code, message string, retryable bool) {
	s.writeJSON(w, status, api.Error{Code: code, Message: message, Retryable: retryable})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
