package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/unitrack/core/assignment"
	"github.com/trezcool/unitrack/core/lecture"
	"github.com/trezcool/unitrack/core/semester"
	"github.com/trezcool/unitrack/core/subject"
	"github.com/trezcool/unitrack/tests"
)

func Test_semesterApi(t *testing.T) {
	e := setup(t)
	usr := testutil.CreateUser(t, e.repos.Users, "Jane Doe", "S001")

	e.run(t, []httpTest{
		{
			name: "invalid number", method: http.MethodPost, path: "/v1/semesters",
			body:     []byte(`{"user_id": ` + itoa(usr.ID) + `, "year": 5, "semester_number": 3}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"year":            "year must be 4 or less",
				"semester_number": "semester_number must be one of [1 2]",
			}),
		},
		{
			name: "unknown", path: "/v1/semesters/999", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: semester.ErrNotFound.Error()}),
		},
	})

	body := []byte(`{"user_id": ` + itoa(usr.ID) + `, "year": 2, "semester_number": 1}`)
	rec := e.serve(http.MethodPost, "/v1/semesters", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create() code = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	var sem semester.Semester
	unmarchall(t, rec, &sem)
	if sem.Name != "Year 2 - Semester 1" {
		t.Errorf("create() Name = %q, want default name", sem.Name)
	}

	t.Run("upsert renames", func(t *testing.T) {
		body := []byte(`{"user_id": ` + itoa(usr.ID) + `, "year": 2, "semester_number": 1, "name": "Second year"}`)
		rec := e.serve(http.MethodPost, "/v1/semesters", body)
		var got semester.Semester
		unmarchall(t, rec, &got)
		if got.ID != sem.ID || got.Name != "Second year" {
			t.Errorf("create() = %+v, want semester %d renamed", got, sem.ID)
		}
	})

	t.Run("update clash", func(t *testing.T) {
		other := testutil.CreateSemester(t, e.repos.Semesters, usr.ID, 1, 1)
		rec := e.serve(http.MethodPut, "/v1/semesters/"+itoa(other.ID), []byte(`{"year": 2, "semester_number": 1, "name": "Clash"}`))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, map[string]string{"semester_number": semester.ErrExists.Error()}),
		}, rec)
	})

	t.Run("gpa", func(t *testing.T) {
		testutil.CreateSubject(t, e.repos.Subjects, sem.ID, "Networks", "B+", 2, true)
		testutil.CreateSubject(t, e.repos.Subjects, sem.ID, "Ethics", "F", 2, false)
		path := "/v1/semesters/" + itoa(sem.ID) + "/gpa"

		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"gpa": 3.3}`)}, e.serve(http.MethodGet, path))
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"gpa": 3.3}`)}, e.serve(http.MethodPost, path))

		stored, err := e.repos.Semesters.GetSemesterByID(context.Background(), sem.ID)
		if err != nil {
			t.Fatalf("GetSemesterByID() failed: %v", err)
		}
		if stored.GPA != 3.3 {
			t.Errorf("stored GPA = %v, want 3.3", stored.GPA)
		}
	})

	t.Run("delete cascades", func(t *testing.T) {
		rec := e.serve(http.MethodDelete, "/v1/semesters/"+itoa(sem.ID))
		if rec.Code != http.StatusNoContent {
			t.Errorf("destroy() code = %d, want 204", rec.Code)
		}
		if n := testutil.CountRows(t, e.db, "subjects", "semester_id = ?", sem.ID); n != 0 {
			t.Errorf("subjects = %d, want 0", n)
		}
		testutil.AssertNoOrphans(t, e.db)
	})
}

func Test_subjectApi(t *testing.T) {
	e := setup(t)
	h := testutil.CreateHierarchy(t, e.repos, "S001")

	e.run(t, []httpTest{
		{
			name: "unknown grade", method: http.MethodPost, path: "/v1/subjects",
			body:     []byte(`{"semester_id": ` + itoa(h.Semester.ID) + `, "name": "Physics", "credit_value": 3, "grade": "Z"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"grade": "grade must be one of A+, A, A-, B+, B, B-, C+, C, C-, D+, D, E, F"}),
		},
		{
			name: "unknown", path: "/v1/subjects/999", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: subject.ErrNotFound.Error()}),
		},
	})

	body := []byte(`{"semester_id": ` + itoa(h.Semester.ID) + `, "name": "Physics", "credit_value": 1, "grade": " c "}`)
	rec := e.serve(http.MethodPost, "/v1/subjects", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create() code = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	var sub subject.Subject
	unmarchall(t, rec, &sub)
	if sub.Grade != subject.GradeC || !sub.IsCalculated {
		t.Errorf("create() = %+v, want grade C, calculated", sub)
	}

	// adding a subject refreshes the cached semester GPA: (3*4 + 1*2) / 4
	sem, err := e.repos.Semesters.GetSemesterByID(context.Background(), h.Semester.ID)
	if err != nil {
		t.Fatalf("GetSemesterByID() failed: %v", err)
	}
	if sem.GPA != 3.5 {
		t.Errorf("semester GPA = %v, want 3.5", sem.GPA)
	}

	asg := testutil.CreateAssignment(t, e.repos.Assignments, sub.ID, "Lab", time.Now().Add(time.Hour), assignment.StatusCompleted)
	lec := testutil.CreateLecture(t, e.repos.Lectures, h.User.ID, sub.ID, 2, "09:00", "10:00")
	base := "/v1/subjects/" + itoa(sub.ID)

	rec = e.serve(http.MethodGet, base+"/assignments")
	var views []assignment.View
	unmarchall(t, rec, &views)
	if got := viewIDs(views); !sameInts(got, []int{asg.ID}) {
		t.Errorf("assignments() = %v, want [%d]", got, asg.ID)
	}
	e.run(t, []httpTest{
		{
			name: "stats", path: base + "/stats", wantCode: http.StatusOK,
			wantData: []byte(`{"total_assignments": 1, "completed": 1, "pending": 0, "average_marks": 0, "completion_rate": 100}`),
		},
		{name: "lectures", path: base + "/lectures", wantCode: http.StatusOK, wantData: marchallList(t, lec)},
	})

	t.Run("update", func(t *testing.T) {
		body := []byte(`{"semester_id": ` + itoa(h.Semester.ID) + `, "name": "Physics I", "credit_value": 1, "grade": "A", "is_calculated": false}`)
		rec := e.serve(http.MethodPut, base, body)
		var got subject.Subject
		unmarchall(t, rec, &got)
		if got.Name != "Physics I" || got.IsCalculated {
			t.Errorf("update() = %+v, want Physics I, not calculated", got)
		}
	})

	t.Run("delete cascades", func(t *testing.T) {
		if rec := e.serve(http.MethodDelete, base); rec.Code != http.StatusNoContent {
			t.Errorf("destroy() code = %d, want 204", rec.Code)
		}
		if rec := e.serve(http.MethodDelete, base); rec.Code != http.StatusNoContent {
			t.Errorf("destroy() twice code = %d, want 204", rec.Code)
		}
		testutil.AssertNoOrphans(t, e.db)
		if n := testutil.CountRows(t, e.db, "lectures", "subject_id = ?", sub.ID); n != 0 {
			t.Errorf("lectures = %d, want 0", n)
		}
	})
}

func Test_assignmentApi(t *testing.T) {
	e := setup(t)
	h := testutil.CreateHierarchy(t, e.repos, "S001")
	due := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)

	e.run(t, []httpTest{
		{
			name: "invalid status", method: http.MethodPost, path: "/v1/assignments",
			body:     []byte(`{"subject_id": ` + itoa(h.Subject.ID) + `, "title": "Essay", "due_date": "` + due.Format(time.RFC3339) + `", "status": "lost"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "status must be one of pending, in_progress, completed, overdue"}),
		},
		{
			name: "unknown", path: "/v1/assignments/999", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: assignment.ErrNotFound.Error()}),
		},
		{
			name: "due soon needs user", path: "/v1/assignments/due-soon", wantCode: http.StatusBadRequest,
			wantData: []byte(`{"error": "required field value is empty", "field": "user_id"}`),
		},
	})

	body := []byte(`{"subject_id": ` + itoa(h.Subject.ID) + `, "title": "  Essay ", "due_date": "` + due.Format(time.RFC3339) + `", "priority": 4}`)
	rec := e.serve(http.MethodPost, "/v1/assignments", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create() code = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	var view assignment.View
	unmarchall(t, rec, &view)
	if view.Title != "Essay" || view.Status != assignment.StatusPending || view.PriorityText != "Critical" || view.TotalMarks != 100 {
		t.Errorf("create() = %+v, want pending critical Essay out of 100", view)
	}
	path := "/v1/assignments/" + itoa(view.ID)
	late := testutil.CreateAssignment(t, e.repos.Assignments, h.Subject.ID, "Lab", time.Now().Add(-time.Hour), assignment.StatusPending)

	t.Run("due soon", func(t *testing.T) {
		rec := e.serve(http.MethodGet, "/v1/assignments/due-soon?user_id="+itoa(h.User.ID)+"&days=3")
		var views []assignment.View
		unmarchall(t, rec, &views)
		if got := viewIDs(views); !sameInts(got, []int{view.ID}) {
			t.Errorf("dueSoon() = %v, want [%d]", got, view.ID)
		}
	})

	t.Run("overdue sweep", func(t *testing.T) {
		rec := e.serve(http.MethodGet, "/v1/assignments/overdue?user_id="+itoa(h.User.ID))
		var views []assignment.View
		unmarchall(t, rec, &views)
		if got := viewIDs(views); !sameInts(got, []int{late.ID}) {
			t.Errorf("overdue() = %v, want [%d]", got, late.ID)
		}

		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"count": 1}`)}, e.serve(http.MethodPost, "/v1/assignments/mark-overdue"))
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"count": 0}`)}, e.serve(http.MethodPost, "/v1/assignments/mark-overdue"))
	})

	t.Run("complete with marks", func(t *testing.T) {
		e.run(t, []httpTest{
			{name: "total marks", method: http.MethodPut, path: path + "/total-marks", body: []byte(`{"total_marks": 50}`), wantCode: http.StatusNoContent},
			{
				name: "total marks must be positive", method: http.MethodPut, path: path + "/total-marks", body: []byte(`{"total_marks": 0}`),
				wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"total_marks": "total_marks must be greater than 0"}),
			},
			{name: "complete", method: http.MethodPost, path: path + "/complete", body: []byte(`{"obtained_marks": 45}`), wantCode: http.StatusNoContent},
			{name: "complete unknown", method: http.MethodPost, path: "/v1/assignments/999/complete", body: []byte(`{}`), wantCode: http.StatusNoContent},
		})

		rec := e.serve(http.MethodGet, path)
		var got assignment.View
		unmarchall(t, rec, &got)
		if got.Status != assignment.StatusCompleted || !got.CompletionDate.Valid || got.Percentage != 90 {
			t.Errorf("retrieve() = %+v, want completed at 90%%", got)
		}

		e.run(t, []httpTest{
			{name: "clear marks", method: http.MethodPut, path: path + "/marks", body: []byte(`{"obtained_marks": null}`), wantCode: http.StatusNoContent},
		})
		stored, err := e.repos.Assignments.GetAssignmentByID(context.Background(), view.ID)
		if err != nil {
			t.Fatalf("GetAssignmentByID() failed: %v", err)
		}
		if stored.ObtainedMarks.Valid || stored.Status != assignment.StatusCompleted {
			t.Errorf("stored = %+v, want completed without marks", stored)
		}
	})

	t.Run("filter", func(t *testing.T) {
		rec := e.serve(http.MethodGet, "/v1/assignments?user_id="+itoa(h.User.ID)+"&status=overdue")
		var views []assignment.View
		unmarchall(t, rec, &views)
		if got := viewIDs(views); !sameInts(got, []int{late.ID}) {
			t.Errorf("query() = %v, want [%d]", got, late.ID)
		}
	})

	t.Run("delete", func(t *testing.T) {
		e.run(t, []httpTest{
			{name: "deleted", method: http.MethodDelete, path: path, wantCode: http.StatusNoContent},
			{name: "deleted twice", method: http.MethodDelete, path: path, wantCode: http.StatusNoContent},
			{
				name: "gone", path: path, wantCode: http.StatusNotFound,
				wantData: marchallObj(t, httpErr{Error: assignment.ErrNotFound.Error()}),
			},
		})
	})
}

func Test_lectureApi(t *testing.T) {
	e := setup(t)
	h := testutil.CreateHierarchy(t, e.repos, "S001")

	e.run(t, []httpTest{
		{
			name: "invalid times", method: http.MethodPost, path: "/v1/lectures",
			body: []byte(`{"user_id": ` + itoa(h.User.ID) + `, "subject_id": ` + itoa(h.Subject.ID) +
				`, "title": "Algo", "day_of_week": 8, "start_time": "9:00", "end_time": "24:00"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"day_of_week": "day_of_week must be 7 or less",
				"start_time":  "start_time must be a 24h time formatted as HH:MM",
				"end_time":    "end_time must be a 24h time formatted as HH:MM",
			}),
		},
		{
			name: "ends before start", method: http.MethodPost, path: "/v1/lectures",
			body: []byte(`{"user_id": ` + itoa(h.User.ID) + `, "subject_id": ` + itoa(h.Subject.ID) +
				`, "title": "Algo", "day_of_week": 1, "start_time": "10:30", "end_time": "09:00"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"end_time": lecture.ErrEndBeforeStart.Error()}),
		},
		{
			name: "unknown", path: "/v1/lectures/999", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: lecture.ErrNotFound.Error()}),
		},
	})

	body := []byte(`{"user_id": ` + itoa(h.User.ID) + `, "subject_id": ` + itoa(h.Subject.ID) +
		`, "title": "Algo", "day_of_week": 3, "start_time": "09:00", "end_time": "10:30", "notification_minutes_before": 0}`)
	rec := e.serve(http.MethodPost, "/v1/lectures", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create() code = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	var lec lecture.Lecture
	unmarchall(t, rec, &lec)
	if !lec.NotificationEnabled || lec.NotificationMinutesBefore != 0 {
		t.Errorf("create() = %+v, want notifications at start time", lec)
	}
	path := "/v1/lectures/" + itoa(lec.ID)

	body = []byte(`{"subject_id": ` + itoa(h.Subject.ID) + `, "title": "Algo", "day_of_week": 5, "start_time": "14:00", "end_time": "15:00",
		"notification_enabled": false, "notification_minutes_before": 10}`)
	rec = e.serve(http.MethodPut, path, body)
	var got lecture.Lecture
	unmarchall(t, rec, &got)
	if got.DayOfWeek != 5 || got.NotificationEnabled || got.UserID != h.User.ID {
		t.Errorf("update() = %+v, want Friday, muted, same owner", got)
	}

	e.run(t, []httpTest{
		{name: "deleted", method: http.MethodDelete, path: path, wantCode: http.StatusNoContent},
		{
			name: "gone", path: path, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: lecture.ErrNotFound.Error()}),
		},
	})
}
