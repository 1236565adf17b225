package tests

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/dashboard"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/user"
	"github.com/trezcool/unitrack/tests"
)

func Test_userApi_create(t *testing.T) {
	e := setup(t)
	existing := testutil.CreateUser(t, e.repos.Users, "Jane Doe", "S001")
	_ = existing

	tests := []httpTest{
		{
			name: "required fields", method: http.MethodPost, path: "/v1/users", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":       "this field is required",
				"student_id": "this field is required",
			}),
		},
		{
			name: "blank name", method: http.MethodPost, path: "/v1/users",
			body:     []byte(`{"name": "   ", "student_id": "S002"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "duplicate student id", method: http.MethodPost, path: "/v1/users",
			body:     []byte(`{"name": "John", "student_id": " S001 "}`),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, map[string]string{"student_id": user.ErrStudentIDExists.Error()}),
		},
		{
			name: "malformed body", method: http.MethodPost, path: "/v1/users", body: []byte(`{"name": `),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "unexpected EOF"}),
		},
	}
	e.run(t, tests)

	t.Run("created", func(t *testing.T) {
		rec := e.serve(http.MethodPost, "/v1/users", []byte(`{"name": " John  Smith ", "student_id": "S002"}`))
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %d, want %d; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var got user.User
		unmarchall(t, rec, &got)
		if got.ID == 0 || got.Name != "John Smith" || got.StudentID != "S002" || got.University != user.DefaultUniversity {
			t.Errorf("create() = %+v, want John Smith/S002/%s", got, user.DefaultUniversity)
		}
	})
}

func Test_userApi_retrieve(t *testing.T) {
	e := setup(t)
	usr := testutil.CreateUser(t, e.repos.Users, "Jane Doe", "S001")
	other := testutil.CreateUser(t, e.repos.Users, "Adam Ant", "S002")

	tests := []httpTest{
		{name: "welcome", path: "/", wantCode: http.StatusOK},
		{name: "list (ordered by name)", path: "/v1/users", wantCode: http.StatusOK, wantData: marchallList(t, other, usr)},
		{name: "by id", path: "/v1/users/" + itoa(usr.ID), wantCode: http.StatusOK, wantData: marchallObj(t, usr)},
		{name: "by id (trailing slash)", path: "/v1/users/" + itoa(usr.ID) + "/", wantCode: http.StatusOK, wantData: marchallObj(t, usr)},
		{name: "by student id", path: "/v1/users/student/S002", wantCode: http.StatusOK, wantData: marchallObj(t, other)},
		{
			name: "unknown id", path: "/v1/users/999", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: user.ErrNotFound.Error()}),
		},
		{
			name: "unknown student id", path: "/v1/users/student/S404", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: user.ErrNotFound.Error()}),
		},
		{name: "invalid id", path: "/v1/users/abc", wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid id"})},
		{name: "negative id", path: "/v1/users/-4/gpa", wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid id"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.serve(http.MethodGet, tt.path)
			if tt.wantData == nil { // plain text
				if rec.Code != tt.wantCode || !strings.Contains(rec.Body.String(), "UniTrack") {
					t.Errorf("GET %s = %d %q, want %d", tt.path, rec.Code, rec.Body.String(), tt.wantCode)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_update(t *testing.T) {
	e := setup(t)
	usr := testutil.CreateUser(t, e.repos.Users, "Jane Doe", "S001")
	testutil.CreateUser(t, e.repos.Users, "Adam Ant", "S002")
	path := "/v1/users/" + itoa(usr.ID)

	tests := []httpTest{
		{
			name: "university required", method: http.MethodPut, path: path,
			body:     []byte(`{"name": "Jane", "student_id": "S001", "university": ""}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"university": "this field is required"}),
		},
		{
			name: "student id taken", method: http.MethodPut, path: path,
			body:     []byte(`{"name": "Jane", "student_id": "S002", "university": "UCT"}`),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, map[string]string{"student_id": user.ErrStudentIDExists.Error()}),
		},
	}
	e.run(t, tests)

	rec := e.serve(http.MethodPut, path, []byte(`{"name": "Jane Roe", "student_id": "S001", "university": "UCT"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("update() code = %d, want %d; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	got, err := e.repos.Users.GetUserByID(context.Background(), usr.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if got.Name != "Jane Roe" || got.University != "UCT" || !got.CreatedAt.Equal(usr.CreatedAt) {
		t.Errorf("update() = %+v, want Jane Roe/UCT created at %v", got, usr.CreatedAt)
	}
}

func Test_userApi_destroy(t *testing.T) {
	e := setup(t)
	h := testutil.CreateHierarchy(t, e.repos, "S001")
	testutil.CreateAssignment(t, e.repos.Assignments, h.Subject.ID, "Essay", time.Now().Add(time.Hour), assignment.StatusPending)
	testutil.CreateLecture(t, e.repos.Lectures, h.User.ID, h.Subject.ID, 1, "08:00", "10:00")
	keep := testutil.CreateHierarchy(t, e.repos, "S002")

	path := "/v1/users/" + itoa(h.User.ID)
	e.run(t, []httpTest{
		{name: "deleted", method: http.MethodDelete, path: path, wantCode: http.StatusNoContent},
		{
			name: "gone", path: path, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: user.ErrNotFound.Error()}),
		},
	})

	testutil.AssertNoOrphans(t, e.db)
	for _, table := range []string{"semesters", "lectures"} {
		if n := testutil.CountRows(t, e.db, table, "user_id = ?", h.User.ID); n != 0 {
			t.Errorf("%s of deleted user = %d, want 0", table, n)
		}
	}
	if n := testutil.CountRows(t, e.db, "subjects", "semester_id = ?", keep.Semester.ID); n != 1 {
		t.Errorf("subjects of other user = %d, want 1", n)
	}
}

func Test_userApi_academics(t *testing.T) {
	e := setup(t)
	h := testutil.CreateHierarchy(t, e.repos, "S001")
	testutil.CreateSubject(t, e.repos.Subjects, h.Semester.ID, "Databases", "B", 1, true)
	base := "/v1/users/" + itoa(h.User.ID)

	rec := e.serve(http.MethodGet, base+"/gpa")
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"gpa": 3.75}`)}, rec)

	rec = e.serve(http.MethodGet, base+"/subjects")
	var subjects []map[string]interface{}
	unmarchall(t, rec, &subjects)
	if len(subjects) != 2 {
		t.Errorf("subjects = %d, want 2", len(subjects))
	}

	rec = e.serve(http.MethodGet, base+"/transcript")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Algorithms") {
		t.Errorf("transcript = %d %s, want 200 listing Algorithms", rec.Code, rec.Body.String())
	}
}

func Test_userApi_assignments(t *testing.T) {
	e := setup(t)
	h := testutil.CreateHierarchy(t, e.repos, "S001")
	other := testutil.CreateHierarchy(t, e.repos, "S002")
	now := time.Now()
	late := testutil.CreateAssignment(t, e.repos.Assignments, h.Subject.ID, "Lab", now.Add(-time.Hour), assignment.StatusPending)
	done := testutil.CreateAssignment(t, e.repos.Assignments, h.Subject.ID, "Quiz", now.Add(time.Hour), assignment.StatusCompleted)
	testutil.CreateAssignment(t, e.repos.Assignments, other.Subject.ID, "Other", now.Add(time.Hour), assignment.StatusPending)
	base := "/v1/users/" + itoa(h.User.ID)

	tests := []struct {
		name    string
		path    string
		wantIDs []int
	}{
		{name: "all", path: base + "/assignments", wantIDs: []int{late.ID, done.ID}},
		{name: "pending", path: base + "/assignments?pending=true", wantIDs: []int{late.ID}},
		{name: "status", path: base + "/assignments?status=Completed", wantIDs: []int{done.ID}},
		{name: "user_id cannot escape", path: base + "/assignments?user_id=" + itoa(other.User.ID), wantIDs: []int{late.ID, done.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.serve(http.MethodGet, tt.path)
			if rec.Code != http.StatusOK {
				t.Fatalf("code = %d, want 200; body %s", rec.Code, rec.Body.String())
			}
			var views []assignment.View
			unmarchall(t, rec, &views)
			if got := viewIDs(views); !sameInts(got, tt.wantIDs) {
				t.Errorf("GET %s = %v, want %v", tt.path, got, tt.wantIDs)
			}
		})
	}

	rec := e.serve(http.MethodGet, base+"/assignments?from=yesterday")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid from: code = %d, want 400", rec.Code)
	}

	rec = e.serve(http.MethodGet, base+"/assignments")
	var views []assignment.View
	unmarchall(t, rec, &views)
	for _, v := range views {
		if v.ID == late.ID && (!v.IsOverdue || v.PriorityText != "Low") {
			t.Errorf("late view = %+v, want overdue and Low priority", v)
		}
	}

	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: []byte(`{"total_assignments": 2, "completed": 1, "pending": 1, "average_marks": 0, "completion_rate": 50}`),
	}, e.serve(http.MethodGet, base+"/assignments/stats"))
}

func Test_userApi_lectures(t *testing.T) {
	e := setup(t)
	h := testutil.CreateHierarchy(t, e.repos, "S001")
	today := lecture.ISOWeekday(time.Now())
	tomorrow := today%7 + 1
	lecToday := testutil.CreateLecture(t, e.repos.Lectures, h.User.ID, h.Subject.ID, today, "23:58", "23:59")
	lecTomorrow := testutil.CreateLecture(t, e.repos.Lectures, h.User.ID, h.Subject.ID, tomorrow, "08:00", "10:00")
	base := "/v1/users/" + itoa(h.User.ID)

	e.run(t, []httpTest{
		{name: "all", path: base + "/lectures", wantCode: http.StatusOK, wantData: marchallList(t, lecToday, lecTomorrow)},
		{name: "by day", path: base + "/lectures?day=" + itoa(tomorrow), wantCode: http.StatusOK, wantData: marchallList(t, lecTomorrow)},
		{name: "today", path: base + "/lectures/today", wantCode: http.StatusOK, wantData: marchallList(t, lecToday)},
		{name: "notifications", path: base + "/lectures/notifications", wantCode: http.StatusOK, wantData: marchallList(t, lecToday, lecTomorrow)},
		{
			name: "invalid day", path: base + "/lectures?day=mon", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "day must be a number between 1 and 7"}),
		},
	})

	rec := e.serve(http.MethodGet, base+"/reminders")
	var reminders []lecture.Reminder
	unmarchall(t, rec, &reminders)
	if len(reminders) != 2 {
		t.Errorf("reminders = %d, want 2", len(reminders))
	}
}

func Test_userApi_dashboard(t *testing.T) {
	e := setup(t)
	h := testutil.CreateHierarchy(t, e.repos, "S001")
	testutil.CreateAssignment(t, e.repos.Assignments, h.Subject.ID, "Essay", time.Now().Add(24*time.Hour), assignment.StatusPending)

	rec := e.serve(http.MethodGet, "/v1/users/"+itoa(h.User.ID)+"/dashboard")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard() code = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var dash dashboard.Dashboard
	unmarchall(t, rec, &dash)
	if dash.User.ID != h.User.ID || dash.OverallGPA != 4 || len(dash.DueSoon) != 1 || dash.Stats.Total != 1 {
		t.Errorf("dashboard() = %+v, want user %d, GPA 4, 1 due soon", dash, h.User.ID)
	}
}

func Test_userApi_dashboardStream(t *testing.T) {
	e := setup(t)
	h := testutil.CreateHierarchy(t, e.repos, "S001")

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/users/"+itoa(h.User.ID)+"/dashboard/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.app.ServeHTTP(rec, req)
	}()
	time.Sleep(200 * time.Millisecond)
	cancel()
	<-done

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	var events int
	sc := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for sc.Scan() {
		if sc.Text() == "event: snapshot" {
			events++
		}
	}
	if events == 0 {
		t.Errorf("stream = %q, want at least one snapshot event", rec.Body.String())
	}
}

func Test_userApi_exports(t *testing.T) {
	e := setup(t)
	h := testutil.CreateHierarchy(t, e.repos, "S001")
	testutil.CreateLecture(t, e.repos.Lectures, h.User.ID, h.Subject.ID, 1, "08:00", "10:00")
	base := "/v1/users/" + itoa(h.User.ID)

	rec := e.serve(http.MethodGet, base+"/calendar.ics")
	if rec.Code != http.StatusOK {
		t.Fatalf("calendar() code = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("calendar() Content-Type = %q, want text/calendar", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "RRULE:FREQ=WEEKLY;BYDAY=MO") {
		t.Errorf("calendar() = %q, want a weekly Monday event", body)
	}

	rec = e.serve(http.MethodGet, base+"/transcript.xlsx")
	if rec.Code != http.StatusOK {
		t.Fatalf("transcriptXLSX() code = %d, want 200", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "transcript-S001.xlsx") {
		t.Errorf("transcriptXLSX() Content-Disposition = %q, want transcript-S001.xlsx", cd)
	}
	if !strings.HasPrefix(rec.Body.String(), "PK") { // zip archive
		t.Errorf("transcriptXLSX() body is not a workbook")
	}
}

func Test_server_shutdownOnLostDatabase(t *testing.T) {
	e := setup(t)
	if err := e.db.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	checkCodeAndData(t, httpTest{
		wantCode: http.StatusInternalServerError,
		wantData: marchallObj(t, httpErr{Error: http.StatusText(http.StatusInternalServerError)}),
	}, e.serve(http.MethodGet, "/v1/users"))

	select {
	case <-e.signaled:
	default:
		t.Error("SignalShutdown() not called, want a shutdown signal")
	}
}
