package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sort"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/unitrack/apps/api/echo"
	"github.com/trezcool/unitrack/core"
	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/dashboard"
	"github.com/trezcool/unitrack/core/gpa"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/semester"
	"github.com/trezcool/unitrack/core/subject"
	"github.com/trezcool/unitrack/core/user"
	"github.com/trezcool/unitrack/core/watch"
	"github.com/trezcool/unitrack/services/export"
	sqlxrepos "github.com/trezcool/unitrack/storage/database/sqlx"
	"github.com/trezcool/unitrack/tests"
)

type env struct {
	db       *sqlx.DB
	repos    *sqlxrepos.Repositories
	app      *echoapi.Server
	signaled chan struct{}
}

func setup(t *testing.T) env {
	t.Helper()
	conf := core.NewTestConfig()

	// set up DB & repos
	broker := watch.NewBroker()
	db, repos := testutil.PrepareRepos(t, broker)

	// set up services
	gpaEngine := gpa.NewEngine(repos.Semesters, repos.Subjects)
	usrSvc := user.NewService(repos.Users, repos.Lectures, repos.Semesters, repos.Subjects)
	semSvc := semester.NewService(repos.Semesters, repos.Subjects)
	subSvc := subject.NewService(repos.Subjects, gpaEngine)
	asgSvc := assignment.NewService(repos.Assignments)
	lecSvc := lecture.NewService(repos.Lectures)
	dashSvc := dashboard.NewService(dashboard.Options{
		Users:        usrSvc,
		Semesters:    semSvc,
		GPA:          gpaEngine,
		Assignments:  asgSvc,
		Lectures:     lecSvc,
		Broker:       broker,
		PollInterval: conf.Watch.PollInterval,
	})
	exportSvc := export.NewService(usrSvc, lecSvc, asgSvc, subSvc, gpaEngine)

	validate, translator := core.NewValidator()
	subject.InitValidators(validate, translator)
	assignment.InitValidators(validate, translator)

	// set up server
	signaled := make(chan struct{}, 1)
	signalShutdown := func() {
		select {
		case signaled <- struct{}{}:
		default:
		}
	}
	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		SignalShutdown: signalShutdown,
		UserSvc:        usrSvc,
		SemesterSvc:    semSvc,
		SubjectSvc:     subSvc,
		AssignmentSvc:  asgSvc,
		LectureSvc:     lecSvc,
		GPAEngine:      gpaEngine,
		DashboardSvc:   dashSvc,
		ExportSvc:      exportSvc,
		Validate:       validate,
		Translator:     translator,
	})
	return env{db: db, repos: repos, app: app, signaled: signaled}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func (e env) serve(method, path string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newRequest(method, path, data...)
	e.app.ServeHTTP(rec, req)
	return rec
}

func (e env) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			checkCodeAndData(t, tt, e.serve(method, tt.path, tt.body))
		})
	}
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("json.Unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
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
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	if _, ok := j2.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		if rec.Body.Len() != 0 {
			t.Errorf("failed! data = %v; want no data", rec.Body.String())
		}
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

func itoa(i int) string {
	return strconv.Itoa(i)
}

func viewIDs(views []assignment.View) []int {
	ids := make([]int, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	return ids
}

// sameInts reports whether a and b hold the same values, in any order.
func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	a = append([]int(nil), a...)
	b = append([]int(nil), b...)
	sort.Ints(a)
	sort.Ints(b)
	return reflect.DeepEqual(a, b)
}
