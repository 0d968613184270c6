package echoapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/examdesk/examblock/core/allocation"
	inmemdb "github.com/examdesk/examblock/storage/inmem"
	testutil "github.com/examdesk/examblock/tests"
)

func Test_sessionApi_allocationFlow(t *testing.T) {
	srv, db := setup(t)
	adminToken := getToken(t, testutil.CreateStaff(t, inmemdb.NewStaffRepository(db), "Admin", "admin", "", "", true))

	examRepo := inmemdb.NewExamRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)
	venueRepo := inmemdb.NewVenueRepository(db)
	sessionRepo := inmemdb.NewSessionRepository(db)

	testutil.CreateSubject(t, examRepo, "MAT", "Mathematics")
	unit := testutil.CreateUnit(t, examRepo, "MAT", "3&4", "Units 3 & 4")
	ex := testutil.CreateExam(t, examRepo, unit.Ref(), "Written paper", 120)

	// 4 students on a 2x5 venue: at most half full, so skip-column placement
	zed := testutil.CreateStudent(t, studentRepo, "1001", "Zed", "Amy", false, unit.Ref())
	amy := testutil.CreateStudent(t, studentRepo, "1002", "Amy", "Bob", false, unit.Ref())
	bob := testutil.CreateStudent(t, studentRepo, "1003", "Bob", "Cat", false, unit.Ref())
	cat := testutil.CreateStudent(t, studentRepo, "1004", "Cat", "Dan", false, unit.Ref())
	// AARA student sits elsewhere: excluded from this venue's roster
	testutil.CreateStudent(t, studentRepo, "1005", "Aara", "Eve", true, unit.Ref())

	testutil.CreateVenue(t, venueRepo, "GYM", "Main Gymnasium", 2, 5, false)
	starts := time.Date(2026, 11, 12, 9, 0, 0, 0, time.UTC)
	sess := testutil.CreateSession(t, sessionRepo, "GYM", starts, ex.ID)

	// no allocation stored yet
	req, rec := newAuthRequest(http.MethodGet, "/v1/sessions/"+sess.ID+"/allocation", adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("allocation before allocate: code = %v; want %v", rec.Code, http.StatusNotFound)
	}

	// finalising without an allocation is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/sessions/"+sess.ID+"/finalise", adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("finalise before allocate: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	// allocate
	req, rec = newAuthRequest(http.MethodPost, "/v1/sessions/"+sess.ID+"/allocate", adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("allocate: code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var asg allocation.Assignment
	if err := json.Unmarshal(rec.Body.Bytes(), &asg); err != nil {
		t.Fatalf("unmarshalling assignment: %v", err)
	}
	if asg.Mode != allocation.ModeSkipColumn {
		t.Errorf("mode = %v; want %v", asg.Mode, allocation.ModeSkipColumn)
	}
	// surname order across skip-column desks 1, 3, 5, 6
	wantDesks := map[int]string{1: amy.ID, 3: bob.ID, 5: cat.ID, 6: zed.ID}
	for _, desk := range asg.Desks {
		if want, ok := wantDesks[desk.Index]; ok {
			if desk.StudentID != want {
				t.Errorf("desk %d: student = %q; want %q", desk.Index, desk.StudentID, want)
			}
		} else if desk.StudentID != "" {
			t.Errorf("desk %d should be empty; got %q", desk.Index, desk.StudentID)
		}
	}

	// stored allocation is retrievable
	tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, asg)}
	req, rec = newAuthRequest(http.MethodGet, "/v1/sessions/"+sess.ID+"/allocation", adminToken)
	srv.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)

	// report renders as plain text
	req, rec = newAuthRequest(http.MethodGet, "/v1/sessions/"+sess.ID+"/report", adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("report: code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "GYM 2026-11-12 09:00") {
		t.Errorf("report does not mention the session slot:\n%s", rec.Body.String())
	}

	// finalise
	req, rec = newAuthRequest(http.MethodPost, "/v1/sessions/"+sess.ID+"/finalise", adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("finalise: code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// a finalised session rejects re-allocation and mutation
	req, rec = newAuthRequest(http.MethodPost, "/v1/sessions/"+sess.ID+"/allocate", adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("re-allocate after finalise: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}
	req, rec = newAuthRequest(http.MethodPut, "/v1/sessions/"+sess.ID, adminToken, []byte(`{"starts_at": "2026-11-13T09:00:00Z"}`))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("update after finalise: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}
}

func Test_sessionApi_allocateOverCapacity(t *testing.T) {
	srv, db := setup(t)
	adminToken := getToken(t, testutil.CreateStaff(t, inmemdb.NewStaffRepository(db), "Admin", "admin", "", "", true))

	examRepo := inmemdb.NewExamRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)

	testutil.CreateSubject(t, examRepo, "ENG", "English")
	unit := testutil.CreateUnit(t, examRepo, "ENG", "1&2", "Units 1 & 2")
	ex := testutil.CreateExam(t, examRepo, unit.Ref(), "Written paper", 90)

	for _, number := range []string{"2001", "2002", "2003"} {
		testutil.CreateStudent(t, studentRepo, number, "Surname"+number, "", false, unit.Ref())
	}

	testutil.CreateVenue(t, inmemdb.NewVenueRepository(db), "LAB", "Laboratory", 1, 2, false)
	sess := testutil.CreateSession(t, inmemdb.NewSessionRepository(db), "LAB",
		time.Date(2026, 11, 12, 13, 0, 0, 0, time.UTC), ex.ID)

	// 3 students, 2 desks: conflict, and no partial allocation is stored
	req, rec := newAuthRequest(http.MethodPost, "/v1/sessions/"+sess.ID+"/allocate", adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("allocate: code = %v; want %v; body %s", rec.Code, http.StatusConflict, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/sessions/"+sess.ID+"/allocation", adminToken)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("allocation after failed allocate: code = %v; want %v", rec.Code, http.StatusNotFound)
	}
}

func Test_sessionApi_create(t *testing.T) {
	srv, db := setup(t)
	adminToken := getToken(t, testutil.CreateStaff(t, inmemdb.NewStaffRepository(db), "Admin", "admin", "", "", true))

	examRepo := inmemdb.NewExamRepository(db)
	testutil.CreateSubject(t, examRepo, "MAT", "Mathematics")
	unit := testutil.CreateUnit(t, examRepo, "MAT", "3&4", "Units 3 & 4")
	ex := testutil.CreateExam(t, examRepo, unit.Ref(), "Written paper", 120)
	testutil.CreateVenue(t, inmemdb.NewVenueRepository(db), "GYM", "Main Gymnasium", 2, 5, false)

	tests := []httpTest{
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown venue",
			body:     []byte(`{"venue_code": "NOPE", "starts_at": "2026-11-12T09:00:00Z", "exam_ids": ["` + ex.ID + `"]}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"venue_code": "venue not found"}),
		},
		{
			name:     "unknown exam",
			body:     []byte(`{"venue_code": "GYM", "starts_at": "2026-11-12T09:00:00Z", "exam_ids": ["nope"]}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"exam_ids": "exam nope not found"}),
		},
		{
			name:     "valid session",
			body:     []byte(`{"venue_code": "GYM", "starts_at": "2026-11-12T09:00:00Z", "exam_ids": ["` + ex.ID + `"]}`),
			wantCode: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/sessions", adminToken, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
