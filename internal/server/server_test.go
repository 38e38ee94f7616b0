package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"aitodo/internal/app"
	"aitodo/internal/store"
)

type testEnv struct {
	t      *testing.T
	srv    *httptest.Server
	redis  *miniredis.Miniredis
	store  *store.MemoryStore
	images *fakeImageStore
}

func newTestEnv(t *testing.T, aiBaseURL string) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	if aiBaseURL == "" {
		aiBaseURL = "http://127.0.0.1:1"
	}
	memStore := store.NewMemoryStore()
	images := &fakeImageStore{}
	appCore, err := app.New(app.Config{
		Store:          memStore,
		Redis:          client,
		Images:         images,
		DebugAuthCode:  true,
		HolidayBaseURL: "http://127.0.0.1:1",
		AIBaseURL:      aiBaseURL,
		AIAPIKey:       "test-key",
		AITextModel:    "text-model",
		AIVisionModel:  "vision-model",
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	s, err := New(Config{
		App:                      appCore,
		Redis:                    client,
		LoginRateLimitPerMinute:  100,
		VerifyRateLimitPerMinute: 100,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return &testEnv{t: t, srv: ts, redis: mr, store: memStore, images: images}
}

func (e *testEnv) do(method, path, token string, body any) (*http.Response, map[string]any) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

// register walks the full login+verify flow and returns a session.
func (e *testEnv) register(phone string) (token, userID string) {
	e.t.Helper()
	resp, body := e.do(http.MethodPost, "/api/auth", "", map[string]string{
		"phone": phone, "action": "login",
	})
	if resp.StatusCode != http.StatusOK {
		e.t.Fatalf("login for %s: status %d body %v", phone, resp.StatusCode, body)
	}
	code, _ := body["debug_code"].(string)
	if code == "" {
		e.t.Fatalf("login for %s: no debug_code in %v", phone, body)
	}
	resp, body = e.do(http.MethodPost, "/api/auth", "", map[string]string{
		"phone": phone, "action": "verify", "code": code,
	})
	if resp.StatusCode != http.StatusOK {
		e.t.Fatalf("verify for %s: status %d body %v", phone, resp.StatusCode, body)
	}
	token, _ = body["token"].(string)
	user, _ := body["user"].(map[string]any)
	userID, _ = user["id"].(string)
	if token == "" || userID == "" {
		e.t.Fatalf("verify for %s: incomplete response %v", phone, body)
	}
	return token, userID
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, "")

	resp, body := env.do(http.MethodPost, "/api/auth", "", map[string]string{
		"phone": "12345", "action": "login",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid phone expected 400, got %d", resp.StatusCode)
	}

	resp, _ = env.do(http.MethodPost, "/api/auth", "", map[string]string{
		"phone": "13812345678", "action": "reset",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown action expected 400, got %d", resp.StatusCode)
	}

	resp, body = env.do(http.MethodPost, "/api/auth", "", map[string]string{
		"phone": "13812345678", "action": "login",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login expected 200, got %d", resp.StatusCode)
	}
	if code, _ := body["debug_code"].(string); code == "" {
		t.Fatalf("expected debug_code in debug mode, got %v", body)
	}

	resp, body = env.do(http.MethodPost, "/api/auth", "", map[string]string{
		"phone": "13812345678", "action": "verify", "code": "000000",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong code expected 401, got %d", resp.StatusCode)
	}
	if body["error"] != "验证码错误或已过期" {
		t.Fatalf("wrong code error = %v", body["error"])
	}

	token, _ := env.register("13812345678")
	resp, _ = env.do(http.MethodGet, "/api/todos", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("authenticated list expected 200, got %d", resp.StatusCode)
	}
}

func TestMissingAndExpiredTokensRejected(t *testing.T) {
	env := newTestEnv(t, "")

	resp, body := env.do(http.MethodGet, "/api/todos", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token expected 401, got %d", resp.StatusCode)
	}
	if body["error"] != "登录已过期" {
		t.Fatalf("missing token error = %v", body["error"])
	}

	token, _ := env.register("13812345678")
	env.redis.FastForward(8 * 24 * time.Hour)
	resp, body = env.do(http.MethodGet, "/api/todos", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expired token expected 401, got %d", resp.StatusCode)
	}
	if body["error"] != "登录已过期" {
		t.Fatalf("expired token error = %v", body["error"])
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	env := newTestEnv(t, "")
	token, _ := env.register("13812345678")

	resp, _ := env.do(http.MethodGet, "/api/todos", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list before logout: status %d", resp.StatusCode)
	}

	resp, body := env.do(http.MethodPost, "/api/auth", "", map[string]string{"action": "logout"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("logout without token expected 401, got %d", resp.StatusCode)
	}

	resp, body = env.do(http.MethodPost, "/api/auth", token, map[string]string{"action": "logout"})
	if resp.StatusCode != http.StatusOK || body["success"] != true {
		t.Fatalf("logout: status %d body %v", resp.StatusCode, body)
	}

	resp, body = env.do(http.MethodGet, "/api/todos", token, nil)
	if resp.StatusCode != http.StatusUnauthorized || body["error"] != "登录已过期" {
		t.Fatalf("token after logout: status %d body %v", resp.StatusCode, body)
	}
}

func TestTodoCreateValidation(t *testing.T) {
	env := newTestEnv(t, "")
	token, _ := env.register("13812345678")

	resp, body := env.do(http.MethodPost, "/api/todos", token, map[string]any{"title": "  "})
	if resp.StatusCode != http.StatusBadRequest || body["error"] != "待办事项标题不能为空" {
		t.Fatalf("empty title: status %d body %v", resp.StatusCode, body)
	}

	resp, body = env.do(http.MethodPost, "/api/todos", token, map[string]any{
		"title": "x", "priority": "超级紧急",
	})
	if resp.StatusCode != http.StatusBadRequest || body["error"] != "无效的紧急程度" {
		t.Fatalf("bad priority: status %d body %v", resp.StatusCode, body)
	}

	resp, body = env.do(http.MethodPost, "/api/todos", token, map[string]any{
		"title": "买菜",
		"tags":  []string{"生活", "购物"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d body %v", resp.StatusCode, body)
	}
	todo := body["todo"].(map[string]any)
	if todo["priority"] != "一般" {
		t.Fatalf("default priority = %v, want 一般", todo["priority"])
	}
	tags, _ := todo["tags"].([]any)
	if len(tags) != 2 || tags[0] != "生活" || tags[1] != "购物" {
		t.Fatalf("tags did not round-trip: %v", todo["tags"])
	}
}

func TestTodoListOrdering(t *testing.T) {
	env := newTestEnv(t, "")
	token, _ := env.register("13812345678")

	for _, tc := range []struct {
		title    string
		priority string
		dueDate  string
	}{
		{"低", "一般", "2025-01-01"},
		{"高", "非常紧急", "2025-03-01"},
		{"中-晚", "紧急", "2025-02-02"},
		{"中-早", "紧急", "2025-02-01"},
	} {
		resp, body := env.do(http.MethodPost, "/api/todos", token, map[string]any{
			"title": tc.title, "priority": tc.priority, "due_date": tc.dueDate,
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create %s: status %d body %v", tc.title, resp.StatusCode, body)
		}
	}

	resp, body := env.do(http.MethodGet, "/api/todos", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	rows := body["todos"].([]any)
	var titles []string
	for _, row := range rows {
		titles = append(titles, row.(map[string]any)["title"].(string))
	}
	want := []string{"高", "中-早", "中-晚", "低"}
	if fmt.Sprint(titles) != fmt.Sprint(want) {
		t.Fatalf("order = %v, want %v", titles, want)
	}
}

func TestShareGrantLifecycle(t *testing.T) {
	env := newTestEnv(t, "")
	ownerToken, _ := env.register("13812345678")
	otherToken, otherID := env.register("13987654321")

	resp, body := env.do(http.MethodPost, "/api/todos", ownerToken, map[string]any{"title": "项目评审"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d body %v", resp.StatusCode, body)
	}
	todoID := body["todo"].(map[string]any)["id"].(string)

	// No grant yet: the other user cannot see or touch the todo.
	resp, body = env.do(http.MethodPut, "/api/todos/"+todoID, otherToken, map[string]any{"completed": true})
	if resp.StatusCode != http.StatusNotFound || body["error"] != "待办事项不存在或无权限修改" {
		t.Fatalf("update without grant: status %d body %v", resp.StatusCode, body)
	}

	// Only the creator may share.
	resp, _ = env.do(http.MethodPost, "/api/share", otherToken, map[string]any{
		"todo_id": todoID, "user_id": otherID,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("share by non-creator expected 404, got %d", resp.StatusCode)
	}

	// Read grant lets the todo appear in the grantee's list but not updates.
	resp, _ = env.do(http.MethodPost, "/api/share", ownerToken, map[string]any{
		"todo_id": todoID, "user_id": otherID, "permission": "read",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("share read: status %d", resp.StatusCode)
	}
	resp, body = env.do(http.MethodGet, "/api/todos", otherToken, nil)
	if got := len(body["todos"].([]any)); got != 1 {
		t.Fatalf("grantee list = %d rows, want 1", got)
	}
	resp, _ = env.do(http.MethodPut, "/api/todos/"+todoID, otherToken, map[string]any{"completed": true})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("update with read grant expected 404, got %d", resp.StatusCode)
	}

	// Re-sharing upserts the grant to write.
	resp, _ = env.do(http.MethodPost, "/api/share", ownerToken, map[string]any{
		"todo_id": todoID, "user_id": otherID, "permission": "write",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("share write: status %d", resp.StatusCode)
	}
	resp, body = env.do(http.MethodPut, "/api/todos/"+todoID, otherToken, map[string]any{"completed": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update with write grant: status %d body %v", resp.StatusCode, body)
	}
	updated := body["todo"].(map[string]any)
	if updated["user_relation"] != "shared" || updated["shared_permission"] != "write" {
		t.Fatalf("sharing info = %v/%v", updated["user_relation"], updated["shared_permission"])
	}
	if updated["completed"] != true {
		t.Fatalf("completed not applied: %v", updated)
	}

	// Delete stays creator-only even with a write grant.
	resp, _ = env.do(http.MethodDelete, "/api/todos/"+todoID, otherToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("delete by grantee expected 404, got %d", resp.StatusCode)
	}

	// Revoking the grant closes access again.
	resp, _ = env.do(http.MethodDelete, "/api/share?todo_id="+todoID+"&user_id="+otherID, ownerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unshare: status %d", resp.StatusCode)
	}
	resp, _ = env.do(http.MethodPut, "/api/todos/"+todoID, otherToken, map[string]any{"completed": false})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("update after revoke expected 404, got %d", resp.StatusCode)
	}

	resp, body = env.do(http.MethodDelete, "/api/todos/"+todoID, ownerToken, nil)
	if resp.StatusCode != http.StatusOK || body["message"] != "删除成功" {
		t.Fatalf("delete by creator: status %d body %v", resp.StatusCode, body)
	}
}

func TestInvolvedUsersGetReadGrant(t *testing.T) {
	env := newTestEnv(t, "")
	ownerToken, _ := env.register("13812345678")
	otherToken, otherID := env.register("13987654321")

	// Listing an involved user id at creation grants read access.
	resp, body := env.do(http.MethodPost, "/api/todos", ownerToken, map[string]any{
		"title":          "季度规划",
		"involved_users": []string{otherID, "no-such-user"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d body %v", resp.StatusCode, body)
	}
	todoID := body["todo"].(map[string]any)["id"].(string)

	resp, body = env.do(http.MethodGet, "/api/todos", otherToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list as involved user: status %d", resp.StatusCode)
	}
	rows := body["todos"].([]any)
	if len(rows) != 1 {
		t.Fatalf("involved user list = %d rows, want 1", len(rows))
	}
	if row := rows[0].(map[string]any); row["id"] != todoID {
		t.Fatalf("involved user row = %v", row)
	}

	// The read grant does not allow writes.
	resp, _ = env.do(http.MethodPut, "/api/todos/"+todoID, otherToken, map[string]any{"completed": true})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("update with involved read grant expected 404, got %d", resp.StatusCode)
	}

	// Adding an involved user on update grants read access too.
	thirdToken, thirdID := env.register("13700000000")
	resp, body = env.do(http.MethodPut, "/api/todos/"+todoID, ownerToken, map[string]any{
		"involved_users": []string{otherID, thirdID},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update involved_users: status %d body %v", resp.StatusCode, body)
	}
	resp, body = env.do(http.MethodGet, "/api/todos", thirdToken, nil)
	if got := len(body["todos"].([]any)); got != 1 {
		t.Fatalf("added involved user list = %d rows, want 1", got)
	}
}

func TestEmptyUpdateRejected(t *testing.T) {
	env := newTestEnv(t, "")
	token, _ := env.register("13812345678")

	resp, body := env.do(http.MethodPost, "/api/todos", token, map[string]any{"title": "t"})
	todoID := body["todo"].(map[string]any)["id"].(string)

	resp, body = env.do(http.MethodPut, "/api/todos/"+todoID, token, map[string]any{})
	if resp.StatusCode != http.StatusBadRequest || body["error"] != "没有有效的更新字段" {
		t.Fatalf("empty update: status %d body %v", resp.StatusCode, body)
	}
}

func TestUserSearch(t *testing.T) {
	env := newTestEnv(t, "")
	token, _ := env.register("13812345678")
	env.register("13911112222")
	env.register("15533334444")

	resp, body := env.do(http.MethodGet, "/api/users?q=13", token, nil)
	if resp.StatusCode != http.StatusBadRequest || body["error"] != "搜索关键词至少需要3个字符" {
		t.Fatalf("short query: status %d body %v", resp.StatusCode, body)
	}

	resp, body = env.do(http.MethodGet, "/api/users?q=139", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: status %d", resp.StatusCode)
	}
	users := body["users"].([]any)
	if len(users) != 1 {
		t.Fatalf("search 139 = %d users, want 1", len(users))
	}
	if users[0].(map[string]any)["phone"] != "13911112222" {
		t.Fatalf("unexpected match: %v", users[0])
	}

	// The caller never appears in results.
	resp, body = env.do(http.MethodGet, "/api/users?q=138", token, nil)
	if got := len(body["users"].([]any)); got != 0 {
		t.Fatalf("self excluded: got %d users", got)
	}
}

func TestHolidayEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	resp, _ := env.do(http.MethodGet, "/api/holidays", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing params expected 400, got %d", resp.StatusCode)
	}

	// Remote is unreachable in tests: fallback data serves known years.
	resp, body := env.do(http.MethodGet, "/api/holidays?year=2025", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fallback year: status %d body %v", resp.StatusCode, body)
	}
	if body["source"] != "fallback" {
		t.Fatalf("source = %v, want fallback", body["source"])
	}

	// The fallback result is cached, so the next hit reads the cache.
	resp, body = env.do(http.MethodGet, "/api/holidays?month=2025-10", "", nil)
	if body["source"] != "cache" {
		t.Fatalf("second lookup source = %v, want cache", body["source"])
	}

	resp, _ = env.do(http.MethodGet, "/api/holidays?year=1999", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown year expected 404, got %d", resp.StatusCode)
	}
}
