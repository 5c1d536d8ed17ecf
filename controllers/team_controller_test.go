package controller

import (
	"encoding/json"
	"net/http"
	"testing"

	"classhub/models"
)

func TestDeriveTeamStatus(t *testing.T) {
	tests := []struct {
		name    string
		members int
		min     int
		want    string
	}{
		{"no members", 0, 3, models.TeamStatusNotJoined},
		{"one of three", 1, 3, models.TeamStatusForming},
		{"two of three", 2, 3, models.TeamStatusForming},
		{"exactly minimum", 3, 3, models.TeamStatusComplete},
		{"above minimum", 4, 3, models.TeamStatusComplete},
		{"solo team", 1, 1, models.TeamStatusComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveTeamStatus(tt.members, tt.min); got != tt.want {
				t.Errorf("DeriveTeamStatus(%d, %d) = %q, want %q", tt.members, tt.min, got, tt.want)
			}
		})
	}
}

func trackingStatus(t *testing.T, tc *TeamController, email string, assignmentID uint) string {
	t.Helper()
	var row models.StudentAssignment
	if err := tc.DB.Where("student_email = ? AND assignment_id = ?", email, assignmentID).
		First(&row).Error; err != nil {
		t.Fatalf("load tracking row for %s: %v", email, err)
	}
	return row.TeamStatus
}

func TestRefreshTeamStatusUpdatesEveryMember(t *testing.T) {
	db := setupTestDB(t)
	section := seedSection(t, db, "CS-A")
	subject := seedSubject(t, db, "Operating Systems")
	for _, email := range seedEmails(4) {
		seedStudent(t, db, email, section.ID)
	}
	assignment := seedAssignment(t, db, subject.ID, section.ID, 3, 4)

	tc := NewTeamController(db, testLogger())

	team := models.Team{AssignmentID: assignment.ID, Name: "Alpha"}
	if err := db.Create(&team).Error; err != nil {
		t.Fatalf("create team: %v", err)
	}

	join := func(email string) {
		t.Helper()
		if err := db.Create(&models.TeamMember{TeamID: team.ID, StudentEmail: email}).Error; err != nil {
			t.Fatalf("join %s: %v", email, err)
		}
		if err := refreshTeamStatus(db, team.ID); err != nil {
			t.Fatalf("refresh after %s: %v", email, err)
		}
	}

	join("student1@example.com")
	if got := trackingStatus(t, tc, "student1@example.com", assignment.ID); got != models.TeamStatusForming {
		t.Errorf("after 1 member: %q, want %q", got, models.TeamStatusForming)
	}

	join("student2@example.com")
	// Both existing members see the forming state, not just the joiner
	for _, email := range []string{"student1@example.com", "student2@example.com"} {
		if got := trackingStatus(t, tc, email, assignment.ID); got != models.TeamStatusForming {
			t.Errorf("after 2 members, %s: %q, want %q", email, got, models.TeamStatusForming)
		}
	}

	join("student3@example.com")
	// Reaching the minimum flips every member at once
	for _, email := range []string{"student1@example.com", "student2@example.com", "student3@example.com"} {
		if got := trackingStatus(t, tc, email, assignment.ID); got != models.TeamStatusComplete {
			t.Errorf("after 3 members, %s: %q, want %q", email, got, models.TeamStatusComplete)
		}
	}

	// Non-members keep their own state
	if got := trackingStatus(t, tc, "student4@example.com", assignment.ID); got != models.TeamStatusNotJoined {
		t.Errorf("non-member: %q, want %q", got, models.TeamStatusNotJoined)
	}

	// Growing past the minimum never regresses the status
	join("student4@example.com")
	for _, email := range seedEmails(4) {
		if got := trackingStatus(t, tc, email, assignment.ID); got != models.TeamStatusComplete {
			t.Errorf("after 4 members, %s: %q, want %q", email, got, models.TeamStatusComplete)
		}
	}
}

func TestCreateTeam(t *testing.T) {
	db := setupTestDB(t)
	section := seedSection(t, db, "CS-A")
	subject := seedSubject(t, db, "Algorithms")
	founder := seedStudent(t, db, "founder@example.com", section.ID)
	assignment := seedAssignment(t, db, subject.ID, section.ID, 2, 4)

	tc := NewTeamController(db, testLogger())
	app := newTestApp(&founder, http.MethodPost, "/teams", tc.CreateTeam)

	body, _ := json.Marshal(CreateTeamRequest{
		AssignmentID: assignment.ID,
		TeamName:     "Alpha",
		ProjectName:  "Scheduler",
	})
	resp, parsed := doJSON(t, app, http.MethodPost, "/teams", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d (%v)", resp.StatusCode, http.StatusCreated, parsed)
	}
	if parsed["teamId"] == nil {
		t.Fatal("response missing teamId")
	}

	// Creator is the first member and their status moves to forming
	if got := mustCount(t, db, &models.TeamMember{}, "student_email = ?", founder.Email); got != 1 {
		t.Errorf("member rows = %d, want 1", got)
	}
	if got := trackingStatus(t, tc, founder.Email, assignment.ID); got != models.TeamStatusForming {
		t.Errorf("founder status = %q, want %q", got, models.TeamStatusForming)
	}

	// A second team for the same assignment is rejected
	resp, _ = doJSON(t, app, http.MethodPost, "/teams", body)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
	if got := mustCount(t, db, &models.Team{}, ""); got != 1 {
		t.Errorf("team rows = %d, want 1", got)
	}
}

func TestCreateTeamRequiresTracking(t *testing.T) {
	db := setupTestDB(t)
	section := seedSection(t, db, "CS-A")
	subject := seedSubject(t, db, "Graphics")
	assignment := seedAssignment(t, db, subject.ID, section.ID, 2, 4)

	// This student enrolled after the fan-out, so they have no tracking row
	late := seedStudent(t, db, "late@example.com", section.ID)

	tc := NewTeamController(db, testLogger())
	app := newTestApp(&late, http.MethodPost, "/teams", tc.CreateTeam)

	body, _ := json.Marshal(CreateTeamRequest{AssignmentID: assignment.ID, TeamName: "Late"})
	resp, _ := doJSON(t, app, http.MethodPost, "/teams", body)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
