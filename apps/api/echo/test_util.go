package echoapi

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/examdesk/examblock/core"
	"github.com/examdesk/examblock/core/exam"
	"github.com/examdesk/examblock/core/report"
	"github.com/examdesk/examblock/core/session"
	"github.com/examdesk/examblock/core/staff"
	"github.com/examdesk/examblock/core/student"
	"github.com/examdesk/examblock/core/venue"
	emailsvc "github.com/examdesk/examblock/services/email"
	logsvc "github.com/examdesk/examblock/services/logger"
	inmemdb "github.com/examdesk/examblock/storage/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
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

func testConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		TestMode:         true,
		AppName:          "ExamBlock",
		SecretKey:        "secret",
		DefaultFromEmail: mail.Address{Name: "ExamBlock", Address: "noreply@localhost"},
		CoordinatorEmail: mail.Address{Name: "Exams Coordinator", Address: "exams@localhost"},
		Server: core.ServerConfig{
			Host:                      "localhost",
			Addr:                      ":0",
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

// setup wires a full API server over the in-memory repositories.
func setup(t *testing.T) (Server, *inmemdb.DB) {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	conf := testConfig()

	sessionRepo := inmemdb.NewSessionRepository(db)
	examSvc := exam.NewService(inmemdb.NewExamRepository(db))
	studentSvc := student.NewService(inmemdb.NewStudentRepository(db))
	venueSvc := venue.NewService(inmemdb.NewVenueRepository(db), sessionRepo)
	sessionSvc := session.NewService(sessionRepo, venueSvc, examSvc, studentSvc)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	reportSvc := report.NewService(sessionSvc, studentSvc, mailSvc, conf)
	staffSvc := staff.NewService(inmemdb.NewStaffRepository(db))

	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	logger.Enable(false)

	srv := NewServer(&Options{
		Conf:           conf,
		Logger:         logger,
		DisableReqLogs: true,
		StaffSvc:       staffSvc,
		ExamSvc:        examSvc,
		StudentSvc:     studentSvc,
		VenueSvc:       venueSvc,
		SessionSvc:     sessionSvc,
		ReportSvc:      reportSvc,
	})
	return srv, db
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

func getToken(t *testing.T, st staff.Staff) string {
	t.Helper()
	claims := GetStaffClaims(st)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
