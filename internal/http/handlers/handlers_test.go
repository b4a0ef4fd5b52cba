package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/config"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/game"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/http/middleware"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/repository"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/room"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/service"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/testutil"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/tournament"
)

const botToken = "123:test"

type memUsers struct {
	mu    sync.Mutex
	byTg  map[int64]*domain.User
	seq   int64
	login []int64
}

func (u *memUsers) Upsert(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if cur, ok := u.byTg[user.TgID]; ok {
		user.ID = cur.ID
	} else {
		u.seq++
		user.ID = u.seq
	}
	u.byTg[user.TgID] = user
	return nil
}

func (u *memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.byTg {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, nil
}

func (u *memUsers) LogLogin(_ context.Context, userID int64, _, _ string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.login = append(u.login, userID)
}

func (u *memUsers) GetUserAuditLogs(_ context.Context, userID int64, _ int) ([]*domain.AuditLog, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []*domain.AuditLog
	for _, id := range u.login {
		if id == userID {
			out = append(out, &domain.AuditLog{UserID: id, Action: domain.AuditActionLogin, Category: domain.AuditCategoryAuth})
		}
	}
	return out, nil
}

type stubReader struct{ read bool }

func (s *stubReader) GetTransactionHistory(context.Context, int64, int) ([]*domain.Transaction, error) {
	return []*domain.Transaction{{Kind: domain.TxWagerWin, Amount: 10}}, nil
}

func (s *stubReader) History(context.Context, int64, int) ([]*domain.GameRecord, error) {
	return []*domain.GameRecord{{GameType: "chess", Result: domain.ResultWon}}, nil
}

func (s *stubReader) Stats(context.Context, int64) (repository.GameStats, error) {
	return repository.GameStats{Wins: 1}, nil
}

func (s *stubReader) List(context.Context, int64, int) ([]*domain.Notification, error) {
	return []*domain.Notification{{Title: "hi"}}, nil
}

func (s *stubReader) MarkRead(context.Context, int64) error {
	s.read = true
	return nil
}

type fixture struct {
	r           *gin.Engine
	users       *memUsers
	reader      *stubReader
	rooms       *room.Manager
	tournaments *tournament.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gw := testutil.NewGateway()
	ledger := testutil.NewLedger(map[int64]int64{1: 100})
	registry := game.NewRegistry()

	f := &fixture{
		users:  &memUsers{byTg: map[int64]*domain.User{}},
		reader: &stubReader{},
	}
	f.rooms = room.NewManager(config.RoomConfig{BotFillDelay: time.Hour, DisconnectGrace: time.Hour, BotCycleCap: 50},
		room.Deps{Registry: registry, Gateway: gw, Ledger: ledger, Recorder: &testutil.Recorder{}})
	f.tournaments = tournament.NewManager(config.TournamentConfig{FillDelay: time.Hour, JoinGrace: time.Hour, MaxReplays: 3},
		tournament.Deps{Registry: registry, Gateway: gw, Ledger: ledger, Recorder: &testutil.Recorder{}, Notifier: &testutil.Notifier{}})

	h := &Handler{
		BotToken:      botToken,
		Users:         f.users,
		Transactions:  f.reader,
		Records:       f.reader,
		Notifications: f.reader,
		Audit:         f.users,
		Registry:      registry,
		Rooms:         f.rooms,
		Tournaments:   f.tournaments,
	}

	r := gin.New()
	r.POST("/api/auth/telegram", h.TelegramAuth)
	r.GET("/api/sessions", h.OpenSessions)
	r.GET("/api/sessions/:id", h.Session)
	r.GET("/api/tournaments", h.ListTournaments)
	r.GET("/api/tournaments/:id", h.Tournament)
	auth := r.Group("/api", middleware.JWTAuth())
	auth.GET("/me", h.Me)
	auth.GET("/history", h.MyHistory)
	auth.POST("/notifications/read", h.MarkNotificationsRead)
	auth.GET("/audit", h.MyAuditLog)
	f.r = r
	return f
}

func (f *fixture) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func signInitData(fields map[string]string) string {
	var parts []string
	for k, v := range fields {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(strings.Join(parts, "\n")))

	vals := url.Values{}
	for k, v := range fields {
		vals.Add(k, v)
	}
	vals.Add("hash", hex.EncodeToString(h.Sum(nil)))
	return vals.Encode()
}

func TestTelegramAuth(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/auth/telegram", "", map[string]string{}).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/auth/telegram", "", map[string]string{"init_data": "hash=00&auth_date=1"}).Code)

	initData := signInitData(map[string]string{
		"auth_date": strconv.FormatInt(time.Now().Unix(), 10),
		"user":      `{"id":777,"username":"alice"}`,
	})
	w := f.do(http.MethodPost, "/api/auth/telegram", "", map[string]string{"init_data": initData})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(777), resp.User.TgID)
	claims, err := service.ParseJWT(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Name)
	assert.Equal(t, []int64{resp.User.ID}, f.users.login)

	w = f.do(http.MethodGet, "/api/audit", resp.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var audit struct {
		Logs []domain.AuditLog `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &audit))
	require.Len(t, audit.Logs, 1)
	assert.Equal(t, domain.AuditActionLogin, audit.Logs[0].Action)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/audit", "", nil).Code)
}

func TestMe_RequiresAuthAndReturnsProfile(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/me", "", nil).Code)

	user := &domain.User{TgID: 5, Username: "bob", Balance: 100}
	require.NoError(t, f.users.Upsert(context.Background(), user))
	token, err := service.IssueJWT(user.ID, "bob")
	require.NoError(t, err)

	_, err = f.rooms.CreateSession(context.Background(), game.Participant{ID: user.ID, Name: "bob"}, game.TypeChess, 0)
	require.NoError(t, err)

	w := f.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["active_session"])
	assert.Len(t, resp["transactions"], 1)

	w = f.do(http.MethodGet, "/api/history", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"wins":1`)

	w = f.do(http.MethodPost, "/api/notifications/read", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.reader.read)

	missing, _ := service.IssueJWT(999, "ghost")
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/me", missing, nil).Code)
}

func TestSessionsAndTournaments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/sessions?game_type=go", "", nil).Code)

	p, err := f.rooms.CreateSession(ctx, game.Participant{ID: 1, Name: "alice"}, game.TypeTicTacToe, 0)
	require.NoError(t, err)
	w := f.do(http.MethodGet, "/api/sessions?game_type=tictactoe", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), p.SessionID)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/sessions/"+p.SessionID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/sessions/missing", "", nil).Code)

	tr, err := f.tournaments.CreateTournament(ctx, tournament.CreateParams{GameType: game.TypeChess, Capacity: 4})
	require.NoError(t, err)
	w = f.do(http.MethodGet, "/api/tournaments?status=WAITING", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), tr.ID)
	w = f.do(http.MethodGet, "/api/tournaments?status=FINISHED", "", nil)
	assert.NotContains(t, w.Body.String(), tr.ID)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/tournaments/"+tr.ID, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/tournaments/missing", "", nil).Code)
}
