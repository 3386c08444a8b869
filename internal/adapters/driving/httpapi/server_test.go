package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexchat/internal/core/domain"
	"github.com/custodia-labs/lexchat/internal/core/ports/driving"
)

// stubUsers authenticates the fixed token "good-token" as user-1.
type stubUsers struct{}

func (stubUsers) Register(_ context.Context, email, password string) (*domain.User, error) {
	if !strings.Contains(email, "@") || len(password) < 8 {
		return nil, domain.ErrInvalidInput
	}
	if email == "taken@example.com" {
		return nil, domain.ErrAlreadyExists
	}
	return &domain.User{ID: "user-1", Email: email}, nil
}

func (stubUsers) Login(_ context.Context, email, password string) (string, error) {
	if email == "ca@example.com" && password == "password123" {
		return "good-token", nil
	}
	return "", domain.ErrAuthInvalid
}

func (stubUsers) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if token == "good-token" {
		return &domain.User{ID: "user-1", Email: "ca@example.com"}, nil
	}
	return nil, domain.ErrAuthInvalid
}

// stubChats serves one chat ("chat-1") owned by user-1.
type stubChats struct {
	sendErr error
}

func (s *stubChats) CreateChat(_ context.Context, userID string) (*domain.Chat, error) {
	return &domain.Chat{ID: "chat-new", UserID: userID, Title: domain.DefaultChatTitle}, nil
}

func (s *stubChats) GetChat(_ context.Context, userID, chatID string) (*domain.Chat, error) {
	if userID == "user-1" && chatID == "chat-1" {
		return &domain.Chat{ID: chatID, UserID: userID, Title: domain.DefaultChatTitle}, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubChats) ListChats(_ context.Context, userID string) ([]domain.Chat, error) {
	return []domain.Chat{{ID: "chat-1", UserID: userID, Title: "What is Section 44AB?..."}}, nil
}

func (s *stubChats) ListMessages(_ context.Context, userID, chatID string) ([]domain.Message, error) {
	if chatID != "chat-1" {
		return nil, domain.ErrNotFound
	}
	return []domain.Message{
		{ChatID: chatID, Role: domain.RoleUser, Content: "What is Section 44AB?"},
		{ChatID: chatID, Role: domain.RoleAssistant, Content: "Section 44AB mandates a tax audit..."},
	}, nil
}

func (s *stubChats) SendMessage(_ context.Context, userID, chatID, content string) (*domain.Message, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrInvalidInput
	}
	return &domain.Message{
		ChatID:    chatID,
		Role:      domain.RoleAssistant,
		Content:   "echo: " + content,
		Timestamp: time.Now().UTC(),
	}, nil
}

// stubKnowledge accepts any non-empty upload.
type stubKnowledge struct{}

func (stubKnowledge) Ingest(_ context.Context, text string) (*driving.IngestResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrInvalidInput
	}
	return &driving.IngestResult{ChunkCount: 1}, nil
}

func (stubKnowledge) IngestFile(_ context.Context, _, _, _ string, data []byte) (*driving.IngestResult, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.ErrInvalidInput
	}
	return &driving.IngestResult{ChunkCount: 3}, nil
}

func newTestServer(t *testing.T) (*Server, *stubChats) {
	t.Helper()
	chats := &stubChats{}
	return NewServer(Config{}, stubUsers{}, chats, stubKnowledge{}), chats
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/auth/register", "",
		credentialsRequest{Email: "new@example.com", Password: "password123"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "new@example.com", resp.Email)
}

func TestRegister_Conflict(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/auth/register", "",
		credentialsRequest{Email: "taken@example.com", Password: "password123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/auth/login", "",
		credentialsRequest{Email: "ca@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "good-token", resp["token"])
}

func TestLogin_BadCredentials(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/auth/login", "",
		credentialsRequest{Email: "ca@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChats_RequireAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/chats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/chats", "bad-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChats_ListAndCreate(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/chats", "good-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var chats []chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chats))
	require.Len(t, chats, 1)
	assert.Equal(t, "chat-1", chats[0].ID)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/chats", "good-token", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, domain.DefaultChatTitle, created.Title)
}

func TestMessages(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/chats/chat-1/messages", "good-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var messages []messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "assistant", messages[1].Role)
}

func TestMessages_UnknownChat(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/chats/nope/messages", "good-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpload(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "law.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("Section 44AB mandates a tax audit for businesses above the turnover threshold."))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/knowledge/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer good-token")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(3), resp["chunk_count"])
}

func TestUpload_MissingFile(t *testing.T) {
	srv, _ := newTestServer(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/knowledge/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer good-token")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func dialWS(t *testing.T, srv *Server, path string) (*websocket.Conn, *http.Response, error) {
	t.Helper()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestWebSocket_Turn(t *testing.T) {
	srv, _ := newTestServer(t)

	conn, _, err := dialWS(t, srv, "/ws/chat-1?token=good-token")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("What is Section 44AB?")))

	var reply messageResponse
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "assistant", reply.Role)
	assert.Equal(t, "echo: What is Section 44AB?", reply.Content)
}

func TestWebSocket_BadToken(t *testing.T) {
	srv, _ := newTestServer(t)

	conn, _, err := dialWS(t, srv, "/ws/chat-1?token=bad-token")
	require.NoError(t, err)
	defer conn.Close()

	// The server closes with policy violation (1008).
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
}

func TestWebSocket_UnknownChat(t *testing.T) {
	srv, _ := newTestServer(t)

	conn, _, err := dialWS(t, srv, "/ws/chat-404?token=good-token")
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
}

func TestWebSocket_PipelineErrorKeepsSession(t *testing.T) {
	srv, chats := newTestServer(t)
	chats.sendErr = domain.NewPipelineError(domain.StageGenerating, errors.New("llm down"))

	conn, _, err := dialWS(t, srv, "/ws/chat-1?token=good-token")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))

	var resp wsError
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Contains(t, resp.Error, "GENERATING")

	// The session survives the failed turn.
	chats.sendErr = nil
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("again")))

	var reply messageResponse
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "echo: again", reply.Content)
}
