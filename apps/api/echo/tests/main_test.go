package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/penilaian/apps/api/echo"
	"github.com/trezcool/penilaian/core"
	"github.com/trezcool/penilaian/core/grade"
	inmemdb "github.com/trezcool/penilaian/storage/database/inmem"
	testutil "github.com/trezcool/penilaian/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type requestRecorderMock struct {
	mu       sync.Mutex
	requests []string
}

func (r *requestRecorderMock) RequestServed(method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, method+" "+route+" "+http.StatusText(status))
}

type testApp struct {
	Server
	conf *core.Config
	svc  grade.Service
	rec  *requestRecorderMock
}

func setup(t *testing.T) *testApp {
	t.Setenv("ENV", "TEST")
	conf := core.NewConfig()
	conf.Server.DisableReqLogs = true

	// set up DB & repos
	db, err := inmemdb.Open()
	require.NoError(t, err)

	// set up services
	logger := testutil.NewLogger(t)
	svc := grade.NewService(inmemdb.NewGradeRepository(db), logger, nil)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	grade.InitValidators(validate, translator)

	// set up server
	rec := new(requestRecorderMock)
	srv := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		GradeSvc:   svc,
		Recorder:   rec,
		Validate:   validate,
		Translator: translator,
	})
	return &testApp{Server: srv, conf: conf, svc: svc, rec: rec}
}

type httpErr struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	Hint   string            `json:"hint,omitempty"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, userID string) string {
	token, err := GenerateToken(conf, NewClaims(conf, userID))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// runHTTPTests runs each test case against app and checks the response.
func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

// do sends a single request and decodes the response body into v (if not nil).
func do(t *testing.T, app *testApp, method, path, token string, body interface{}, v interface{}) int {
	t.Helper()
	var data []byte
	if body != nil {
		data = marchallObj(t, body)
	}
	req, rec := newAuthRequest(method, path, token, data)
	app.ServeHTTP(rec, req)
	if v != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
	}
	return rec.Code
}

func TestHome(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to "+app.conf.AppName+" API!", rec.Body.String())
}

func TestAuth(t *testing.T) {
	app := setup(t)

	expired := NewClaims(app.conf, "u1")
	expired.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	expiredToken, err := GenerateToken(app.conf, expired)
	require.NoError(t, err)

	otherConf := *app.conf
	otherConf.SecretKey = "not-the-secret"
	forgedToken := getToken(t, &otherConf, "u1")

	noSubjectToken := getToken(t, app.conf, "  ")

	invalidToken := httpErr{Error: "invalid or expired jwt"}
	unauthorized := httpErr{Error: "user not authenticated"}

	runHTTPTests(t, app, []httpTest{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/api/grades",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "expired token",
			method:   http.MethodGet,
			path:     "/api/grades",
			token:    expiredToken,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, invalidToken),
		},
		{
			name:     "forged token",
			method:   http.MethodGet,
			path:     "/api/final-grades",
			token:    forgedToken,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, invalidToken),
		},
		{
			name:     "no subject",
			method:   http.MethodGet,
			path:     "/api/grades",
			token:    noSubjectToken,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, unauthorized),
		},
		{
			name:     "missing token on schema",
			method:   http.MethodPost,
			path:     "/api/schema/add-parameter",
			body:     []byte(`{"parameterName": "Dokumentasi"}`),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
	})
}

func TestRequestMetrics(t *testing.T) {
	app := setup(t)
	token := getToken(t, app.conf, "u1")

	do(t, app, http.MethodGet, "/api/grades", token, nil, nil)
	do(t, app, http.MethodGet, "/api/final-grades", token, nil, nil)
	do(t, app, http.MethodGet, "/api/grades", "", nil, nil)

	assert.Equal(t, []string{
		"GET /api/grades OK",
		"GET /api/final-grades Not Found",
		"GET /api/grades Unauthorized",
	}, app.rec.requests)
}
