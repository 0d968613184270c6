package echoapi

import (
	"net/http"
	"testing"

	inmemdb "github.com/examdesk/examblock/storage/inmem"
	testutil "github.com/examdesk/examblock/tests"
)

func Test_staffApi_login(t *testing.T) {
	srv, db := setup(t)
	repo := inmemdb.NewStaffRepository(db)

	testutil.CreateStaff(t, repo, "Admin", "admin", "admin@examblock.test", "Str0ngPwd!", true)
	testutil.CreateStaff(t, repo, "Operator", "operator", "op@examblock.test", "0perat0rPwd", false)

	tests := []httpTest{
		{
			name:     "empty credentials",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name:     "unknown username",
			body:     []byte(`{"username": "ghost", "password": "Str0ngPwd!"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     []byte(`{"username": "admin", "password": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "login with username",
			body:     []byte(`{"username": "admin", "password": "Str0ngPwd!"}`),
			wantCode: http.StatusOK,
		},
		{
			name:     "login with email",
			body:     []byte(`{"username": "op@examblock.test", "password": "0perat0rPwd"}`),
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/staff/login", tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_staffApi_permissions(t *testing.T) {
	srv, db := setup(t)
	repo := inmemdb.NewStaffRepository(db)

	admin := testutil.CreateStaff(t, repo, "Admin", "admin", "admin@examblock.test", "", true)
	operator := testutil.CreateStaff(t, repo, "Operator", "operator", "op@examblock.test", "", false)
	adminToken := getToken(t, admin)
	operatorToken := getToken(t, operator)

	tests := []httpTest{
		{
			name:     "query staff requires auth",
			method:   http.MethodGet,
			path:     "/v1/staff",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "query staff requires admin",
			method:   http.MethodGet,
			path:     "/v1/staff",
			token:    operatorToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "admin queries staff",
			method:   http.MethodGet,
			path:     "/v1/staff",
			token:    adminToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "register requires admin",
			method:   http.MethodPost,
			path:     "/v1/staff/register",
			body:     []byte(`{"name": "New", "username": "newbie", "password": "Passw0rd!", "password_confirm": "Passw0rd!"}`),
			token:    operatorToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "admin registers staff",
			method:   http.MethodPost,
			path:     "/v1/staff/register",
			body:     []byte(`{"name": "New", "username": "newbie", "password": "Passw0rd!", "password_confirm": "Passw0rd!"}`),
			token:    adminToken,
			wantCode: http.StatusCreated,
		},
		{
			name:     "password mismatch",
			method:   http.MethodPost,
			path:     "/v1/staff/register",
			body:     []byte(`{"name": "New", "username": "newbie2", "password": "Passw0rd!", "password_confirm": "other"}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "admin cannot delete themselves",
			method:   http.MethodDelete,
			path:     "/v1/staff?id=" + admin.ID,
			token:    adminToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "admin deletes operator",
			method:   http.MethodDelete,
			path:     "/v1/staff?id=" + operator.ID,
			token:    adminToken,
			wantCode: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_staffApi_tokenRefresh(t *testing.T) {
	srv, db := setup(t)
	repo := inmemdb.NewStaffRepository(db)

	admin := testutil.CreateStaff(t, repo, "Admin", "admin", "admin@examblock.test", "", true)
	token := getToken(t, admin)

	req, rec := newAuthRequest(http.MethodPost, "/v1/staff/token-refresh", token)
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}
