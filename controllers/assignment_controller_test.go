package controller

import (
	"testing"
	"time"

	"classhub/models"
)

func baseRequest(subjectID, sectionID uint, reviews []ReviewSpec) CreateAssignmentRequest {
	return CreateAssignmentRequest{
		Title:          "Peer Review Project",
		Description:    "Build and review in teams",
		DueDate:        time.Now().AddDate(0, 0, 21),
		SubjectID:      subjectID,
		CreatedBy:      "teacher@example.com",
		MinTeamMembers: 2,
		MaxTeamMembers: 4,
		SectionID:      sectionID,
		Reviews:        reviews,
	}
}

func TestDistributeFansOutToEveryStudent(t *testing.T) {
	db := setupTestDB(t)
	section := seedSection(t, db, "CS-A")
	subject := seedSubject(t, db, "Software Engineering")

	emails := seedEmails(5)
	for _, email := range emails {
		seedStudent(t, db, email, section.ID)
	}

	// A student in another section must not be targeted
	other := seedSection(t, db, "CS-B")
	seedStudent(t, db, "outsider@example.com", other.ID)

	reviews := []ReviewSpec{
		{ReviewNumber: 1, ReviewName: "Design Review", Marks: 20},
		{ReviewNumber: 2, ReviewName: "Code Review", Marks: 30},
		{ReviewNumber: 3, ReviewName: "Final Demo", Marks: 50},
	}

	ac := NewAssignmentController(db, nil, testLogger())
	assignment, students, err := ac.distribute(baseRequest(subject.ID, section.ID, reviews))
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if len(students) != len(emails) {
		t.Fatalf("targeted %d students, want %d", len(students), len(emails))
	}

	if got := mustCount(t, db, &models.StudentAssignment{}, "assignment_id = ?", assignment.ID); got != 5 {
		t.Errorf("tracking rows = %d, want 5", got)
	}
	if got := mustCount(t, db, &models.StudentAssignmentReview{}, "assignment_id = ?", assignment.ID); got != 15 {
		t.Errorf("review rows = %d, want 15 (5 students x 3 reviews)", got)
	}
	if got := mustCount(t, db, &models.ReviewConfig{}, "assignment_id = ?", assignment.ID); got != 3 {
		t.Errorf("review configs = %d, want 3", got)
	}
	if got := mustCount(t, db, &models.AssignmentSection{}, "assignment_id = ?", assignment.ID); got != 1 {
		t.Errorf("section links = %d, want 1", got)
	}
	if got := mustCount(t, db, &models.StudentAssignment{}, "assignment_id = ? AND student_email = ?",
		assignment.ID, "outsider@example.com"); got != 0 {
		t.Error("student outside the section was fanned out")
	}

	// Every tracking row starts in the initial state
	var tracking []models.StudentAssignment
	if err := db.Where("assignment_id = ?", assignment.ID).Find(&tracking).Error; err != nil {
		t.Fatalf("load tracking rows: %v", err)
	}
	for _, row := range tracking {
		if row.Status != models.AssignmentStatusPending {
			t.Errorf("status = %q, want %q", row.Status, models.AssignmentStatusPending)
		}
		if row.Progress != 0 {
			t.Errorf("progress = %d, want 0", row.Progress)
		}
		if row.SubmissionStatus != models.SubmissionStatusNotSubmitted {
			t.Errorf("submission status = %q, want %q", row.SubmissionStatus, models.SubmissionStatusNotSubmitted)
		}
		if row.TeamStatus != models.TeamStatusNotJoined {
			t.Errorf("team status = %q, want %q", row.TeamStatus, models.TeamStatusNotJoined)
		}
	}
}

func TestDistributeEmptySectionCommits(t *testing.T) {
	db := setupTestDB(t)
	section := seedSection(t, db, "CS-EMPTY")
	subject := seedSubject(t, db, "Databases")

	reviews := []ReviewSpec{{ReviewNumber: 1, ReviewName: "Only Review", Marks: 100}}

	ac := NewAssignmentController(db, nil, testLogger())
	assignment, students, err := ac.distribute(baseRequest(subject.ID, section.ID, reviews))
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if len(students) != 0 {
		t.Fatalf("targeted %d students, want 0", len(students))
	}

	// The assignment itself still commits
	if got := mustCount(t, db, &models.Assignment{}, "id = ?", assignment.ID); got != 1 {
		t.Error("assignment row missing")
	}
	if got := mustCount(t, db, &models.ReviewConfig{}, "assignment_id = ?", assignment.ID); got != 1 {
		t.Errorf("review configs = %d, want 1", got)
	}
	if got := mustCount(t, db, &models.StudentAssignment{}, "assignment_id = ?", assignment.ID); got != 0 {
		t.Errorf("tracking rows = %d, want 0", got)
	}
}

func TestDistributeRollsBackAtomically(t *testing.T) {
	db := setupTestDB(t)
	section := seedSection(t, db, "CS-A")
	subject := seedSubject(t, db, "Networks")
	seedStudent(t, db, "s1@example.com", section.ID)
	seedStudent(t, db, "s2@example.com", section.ID)

	// Duplicate review numbers violate the unique index mid-transaction
	reviews := []ReviewSpec{
		{ReviewNumber: 1, ReviewName: "Review 1", Marks: 50},
		{ReviewNumber: 1, ReviewName: "Review 1 again", Marks: 50},
	}

	ac := NewAssignmentController(db, nil, testLogger())
	if _, _, err := ac.distribute(baseRequest(subject.ID, section.ID, reviews)); err == nil {
		t.Fatal("duplicate review numbers should fail the transaction")
	}

	// Nothing from the failed transaction may survive
	if got := mustCount(t, db, &models.Assignment{}, ""); got != 0 {
		t.Errorf("assignment rows = %d, want 0 after rollback", got)
	}
	if got := mustCount(t, db, &models.AssignmentSection{}, ""); got != 0 {
		t.Errorf("section links = %d, want 0 after rollback", got)
	}
	if got := mustCount(t, db, &models.ReviewConfig{}, ""); got != 0 {
		t.Errorf("review configs = %d, want 0 after rollback", got)
	}
	if got := mustCount(t, db, &models.StudentAssignment{}, ""); got != 0 {
		t.Errorf("tracking rows = %d, want 0 after rollback", got)
	}
	if got := mustCount(t, db, &models.StudentAssignmentReview{}, ""); got != 0 {
		t.Errorf("review rows = %d, want 0 after rollback", got)
	}
}

func TestDistributeIsIdempotentPerStudent(t *testing.T) {
	db := setupTestDB(t)
	section := seedSection(t, db, "CS-A")
	subject := seedSubject(t, db, "Compilers")
	seedStudent(t, db, "s1@example.com", section.ID)

	reviews := []ReviewSpec{{ReviewNumber: 1, ReviewName: "Review 1", Marks: 10}}

	ac := NewAssignmentController(db, nil, testLogger())
	first, _, err := ac.distribute(baseRequest(subject.ID, section.ID, reviews))
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	second, _, err := ac.distribute(baseRequest(subject.ID, section.ID, reviews))
	if err != nil {
		t.Fatalf("second distribute: %v", err)
	}

	// Distinct assignments each get exactly one tracking row per student
	for _, id := range []uint{first.ID, second.ID} {
		if got := mustCount(t, db, &models.StudentAssignment{}, "assignment_id = ?", id); got != 1 {
			t.Errorf("assignment %d tracking rows = %d, want 1", id, got)
		}
	}
}
