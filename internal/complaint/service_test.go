package complaint_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"redressal/internal/audit"
	"redressal/internal/complaint"
	complaintstore "redressal/internal/complaint/store"
	"redressal/internal/locker"
	"redressal/internal/rbac"
	rbacstore "redressal/internal/rbac/store"
	"redressal/internal/timeline"
	id "redressal/pkg/domain"
	dErrors "redressal/pkg/domain-errors"
)

// ServiceSuite exercises the full policy surface against in-memory stores.
type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	svc       *complaint.Service
	roles     *rbacstore.InMemory
	lockerSvc *locker.Service
	recorder  *timeline.Recorder
	inbox     chan audit.Event

	student id.PrincipalID
	staff   id.PrincipalID
	admin   id.PrincipalID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.roles = rbacstore.NewInMemory()
	s.lockerSvc = locker.NewService(locker.NewInMemoryStore())
	s.recorder = timeline.NewRecorder(timeline.NewInMemoryStore())
	s.inbox = make(chan audit.Event, 16)

	roleService := rbac.NewService(s.roles)
	s.svc = complaint.NewService(
		complaintstore.NewInMemory(),
		roleService,
		s.recorder,
		s.lockerSvc,
		complaint.WithAuditPublisher(audit.NewPublisher(s.inbox)),
	)

	s.student = id.NewPrincipalID()
	s.staff = id.NewPrincipalID()
	s.admin = id.NewPrincipalID()
	s.Require().NoError(s.roles.Grant(s.ctx, s.student, id.RoleStudent))
	s.Require().NoError(s.roles.Grant(s.ctx, s.staff, id.RoleStaff))
	s.Require().NoError(s.roles.Grant(s.ctx, s.admin, id.RoleAdmin))
}

func (s *ServiceSuite) draft() complaint.Draft {
	return complaint.Draft{
		Category: complaint.CategoryFood,
		Severity: complaint.SeverityLow,
		Title:    "Cold food in the mess hall",
		Body:     "Dinner has been served cold every day this week in the main mess hall.",
	}
}

func (s *ServiceSuite) submit(submitter id.PrincipalID, anonymous bool) id.ComplaintID {
	d := s.draft()
	d.Anonymous = anonymous
	cid, err := s.svc.Submit(s.ctx, submitter, d)
	s.Require().NoError(err)
	return cid
}

func (s *ServiceSuite) TestSubmitCreatesTimelineEntry() {
	cid := s.submit(s.student, false)

	entries, err := s.svc.Timeline(s.ctx, s.student, cid)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("Complaint submitted", entries[0].Message)
	s.Nil(entries[0].AuthorID, "creation entry must not name an author")
}

func (s *ServiceSuite) TestSubmitRequiresStudentRole() {
	_, err := s.svc.Submit(s.ctx, s.staff, s.draft())
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "got %v", err)
}

func (s *ServiceSuite) TestSubmitRejectsInvalidDraft() {
	d := s.draft()
	d.Title = "meh"
	_, err := s.svc.Submit(s.ctx, s.student, d)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
}

func (s *ServiceSuite) TestActiveComplaintCap() {
	for i := 0; i < complaint.MaxActiveComplaints; i++ {
		s.submit(s.student, false)
	}

	_, err := s.svc.Submit(s.ctx, s.student, s.draft())
	s.True(dErrors.HasCode(err, dErrors.CodeLimitExceeded), "got %v", err)
}

func (s *ServiceSuite) TestWithdrawalFreesCapSlot() {
	cids := make([]id.ComplaintID, 0, complaint.MaxActiveComplaints)
	for i := 0; i < complaint.MaxActiveComplaints; i++ {
		cids = append(cids, s.submit(s.student, false))
	}

	s.Require().NoError(s.svc.Withdraw(s.ctx, s.student, cids[0], "filed twice"))

	_, err := s.svc.Submit(s.ctx, s.student, s.draft())
	s.NoError(err, "withdrawn complaints must not count toward the cap")
}

func (s *ServiceSuite) TestResolutionFreesCapSlot() {
	cid := s.submit(s.student, false)
	for i := 1; i < complaint.MaxActiveComplaints; i++ {
		s.submit(s.student, false)
	}

	s.Require().NoError(s.svc.UpdateStatus(s.ctx, s.admin, cid, complaint.StatusResolved, ""))

	_, err := s.svc.Submit(s.ctx, s.student, s.draft())
	s.NoError(err, "resolved complaints must not count toward the cap")
}

// TestCapUnderConcurrentSubmissions checks the safety property directly:
// whatever the interleaving, no more than the cap of active complaints exists.
func (s *ServiceSuite) TestCapUnderConcurrentSubmissions() {
	const attempts = 20
	var wg sync.WaitGroup
	var accepted, rejected atomic.Int32

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Submit(s.ctx, s.student, s.draft())
			switch {
			case err == nil:
				accepted.Add(1)
			case dErrors.HasCode(err, dErrors.CodeLimitExceeded):
				rejected.Add(1)
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(complaint.MaxActiveComplaints), accepted.Load())
	s.Equal(int32(attempts-complaint.MaxActiveComplaints), rejected.Load())

	list, err := s.svc.ListMine(s.ctx, s.student)
	s.Require().NoError(err)
	s.Len(list, complaint.MaxActiveComplaints)
}

// TestConcurrentResolutions races two writers resolving the same complaint:
// exactly one transition commits, the loser observes the terminal state.
func (s *ServiceSuite) TestConcurrentResolutions() {
	cid := s.submit(s.student, false)
	s.Require().NoError(s.svc.Assign(s.ctx, s.admin, cid, s.staff))
	s.Require().NoError(s.svc.UpdateStatus(s.ctx, s.staff, cid, complaint.StatusInProgress, ""))

	var wg sync.WaitGroup
	var resolved, rejected atomic.Int32
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.svc.UpdateStatus(s.ctx, s.staff, cid, complaint.StatusResolved, "")
			switch {
			case err == nil:
				resolved.Add(1)
			case dErrors.HasCode(err, dErrors.CodeInvalidTransition),
				dErrors.HasCode(err, dErrors.CodeConflict):
				rejected.Add(1)
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), resolved.Load())
	s.Equal(int32(1), rejected.Load())

	c, err := s.svc.Read(s.ctx, s.admin, cid)
	s.Require().NoError(err)
	s.Equal(complaint.StatusResolved, c.Status)
	s.NotNil(c.ResolvedAt)
}

func (s *ServiceSuite) TestReadVisibility() {
	cid := s.submit(s.student, false)

	s.Run("owner reads own complaint", func() {
		c, err := s.svc.Read(s.ctx, s.student, cid)
		s.Require().NoError(err)
		s.Equal(s.student, c.SubmitterID)
	})

	s.Run("another student gets not found", func() {
		other := id.NewPrincipalID()
		s.Require().NoError(s.roles.Grant(s.ctx, other, id.RoleStudent))
		_, err := s.svc.Read(s.ctx, other, cid)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "denied reads must be indistinguishable from missing records, got %v", err)
	})

	s.Run("unassigned staff gets not found", func() {
		_, err := s.svc.Read(s.ctx, s.staff, cid)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "got %v", err)
	})

	s.Run("assigned staff reads the complaint", func() {
		s.Require().NoError(s.svc.Assign(s.ctx, s.admin, cid, s.staff))
		_, err := s.svc.Read(s.ctx, s.staff, cid)
		s.NoError(err)
	})

	s.Run("admin reads any complaint", func() {
		_, err := s.svc.Read(s.ctx, s.admin, cid)
		s.NoError(err)
	})

	s.Run("timeline follows read visibility", func() {
		other := id.NewPrincipalID()
		_, err := s.svc.Timeline(s.ctx, other, cid)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "got %v", err)
	})
}

// TestAnonymousComplaintFlow walks the full reveal workflow: vault at
// submission, redaction everywhere, request before reveal, and disclosure to
// admins only once the reveal completes.
func (s *ServiceSuite) TestAnonymousComplaintFlow() {
	cid := s.submit(s.student, true)
	s.Require().NoError(s.svc.Assign(s.ctx, s.admin, cid, s.staff))

	s.Run("owner reads a redacted record too", func() {
		c, err := s.svc.Read(s.ctx, s.student, cid)
		s.Require().NoError(err)
		s.True(c.SubmitterID.IsNil(), "anonymous submissions stay redacted even for their owner")
		s.True(c.Anonymous)
	})

	s.Run("assigned staff sees a redacted record", func() {
		c, err := s.svc.Read(s.ctx, s.staff, cid)
		s.Require().NoError(err)
		s.True(c.SubmitterID.IsNil())
		s.True(c.Anonymous)
	})

	s.Run("admin sees a redacted record before reveal", func() {
		c, err := s.svc.Read(s.ctx, s.admin, cid)
		s.Require().NoError(err)
		s.True(c.SubmitterID.IsNil())
	})

	s.Run("reveal before request is rejected", func() {
		err := s.svc.Reveal(s.ctx, s.admin, cid)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "got %v", err)
	})

	s.Run("staff may not run the reveal workflow", func() {
		err := s.svc.RequestReveal(s.ctx, s.staff, cid, "curiosity")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "got %v", err)
	})

	s.Run("request then reveal discloses to admin only", func() {
		s.Require().NoError(s.svc.RequestReveal(s.ctx, s.admin, cid, "harassment investigation"))
		s.Require().NoError(s.svc.Reveal(s.ctx, s.admin, cid))

		c, err := s.svc.Read(s.ctx, s.admin, cid)
		s.Require().NoError(err)
		s.Equal(s.student, c.SubmitterID)

		c, err = s.svc.Read(s.ctx, s.staff, cid)
		s.Require().NoError(err)
		s.True(c.SubmitterID.IsNil(), "staff must never learn the submitter")
	})

	s.Run("repeat reveal is rejected", func() {
		err := s.svc.Reveal(s.ctx, s.admin, cid)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "got %v", err)
	})

	s.Run("workflow is written to the timeline", func() {
		entries, err := s.svc.Timeline(s.ctx, s.admin, cid)
		s.Require().NoError(err)
		messages := make([]string, 0, len(entries))
		for _, e := range entries {
			messages = append(messages, e.Message)
		}
		s.Contains(messages, "Identity reveal requested")
		s.Contains(messages, "Identity revealed")
	})

	s.Run("workflow emits audit events", func() {
		actions := make([]audit.Action, 0, len(s.inbox))
		for len(s.inbox) > 0 {
			actions = append(actions, (<-s.inbox).Action)
		}
		s.Contains(actions, audit.ActionRevealRequested)
		s.Contains(actions, audit.ActionRevealCompleted)
	})
}

func (s *ServiceSuite) TestNonAnonymousComplaintHasNoLockerEntry() {
	cid := s.submit(s.student, false)
	_, revealed, err := s.lockerSvc.RevealedSubmitter(s.ctx, cid)
	s.Require().NoError(err)
	s.False(revealed)
	_, err = s.lockerSvc.Status(s.ctx, cid)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "got %v", err)
}

func (s *ServiceSuite) TestUpdateStatusAuthorization() {
	cid := s.submit(s.student, false)

	s.Run("unassigned staff is rejected", func() {
		err := s.svc.UpdateStatus(s.ctx, s.staff, cid, complaint.StatusInProgress, "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "got %v", err)
	})

	s.Run("submitter is rejected", func() {
		err := s.svc.UpdateStatus(s.ctx, s.student, cid, complaint.StatusInProgress, "")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "got %v", err)
	})

	s.Run("assigned staff may transition", func() {
		s.Require().NoError(s.svc.Assign(s.ctx, s.admin, cid, s.staff))
		s.Require().NoError(s.svc.UpdateStatus(s.ctx, s.staff, cid, complaint.StatusInProgress, "looking into it"))

		c, err := s.svc.Read(s.ctx, s.staff, cid)
		s.Require().NoError(err)
		s.Equal(complaint.StatusInProgress, c.Status)
	})

	s.Run("note lands in the timeline", func() {
		entries, err := s.svc.Timeline(s.ctx, s.staff, cid)
		s.Require().NoError(err)
		last := entries[len(entries)-1]
		s.Equal("looking into it", last.Message)
		s.Require().NotNil(last.AuthorID)
		s.Equal(s.staff, *last.AuthorID)
	})

	s.Run("resolved is terminal", func() {
		s.Require().NoError(s.svc.UpdateStatus(s.ctx, s.staff, cid, complaint.StatusResolved, ""))
		err := s.svc.UpdateStatus(s.ctx, s.staff, cid, complaint.StatusInProgress, "")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "got %v", err)
	})
}

func (s *ServiceSuite) TestRatingFlow() {
	cid := s.submit(s.student, false)
	s.Require().NoError(s.svc.UpdateStatus(s.ctx, s.admin, cid, complaint.StatusResolved, ""))

	s.Run("only the owner may rate", func() {
		err := s.svc.Rate(s.ctx, s.staff, cid, 4)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "got %v", err)
	})

	s.Run("owner rates once", func() {
		s.Require().NoError(s.svc.Rate(s.ctx, s.student, cid, 4))
		err := s.svc.Rate(s.ctx, s.student, cid, 5)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "got %v", err)
	})

	s.Run("rating is readable and recorded in the timeline", func() {
		c, err := s.svc.Read(s.ctx, s.student, cid)
		s.Require().NoError(err)
		s.Require().NotNil(c.Rating)
		s.Equal(4, *c.Rating)

		entries, err := s.svc.Timeline(s.ctx, s.student, cid)
		s.Require().NoError(err)
		s.Equal("Resolution rated 4/5", entries[len(entries)-1].Message)
	})
}

func (s *ServiceSuite) TestWithdrawalRules() {
	cid := s.submit(s.student, false)

	s.Run("non-owner withdrawal reads as not found", func() {
		err := s.svc.Withdraw(s.ctx, s.staff, cid, "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "got %v", err)
	})

	s.Run("owner withdraws with reason", func() {
		s.Require().NoError(s.svc.Withdraw(s.ctx, s.student, cid, "resolved informally"))
		c, err := s.svc.Read(s.ctx, s.student, cid)
		s.Require().NoError(err)
		s.True(c.IsWithdrawn())
		s.Equal("resolved informally", c.WithdrawReason)

		entries, err := s.svc.Timeline(s.ctx, s.student, cid)
		s.Require().NoError(err)
		s.Equal("Complaint withdrawn: resolved informally", entries[len(entries)-1].Message)
	})

	s.Run("record survives withdrawal", func() {
		c, err := s.svc.Read(s.ctx, s.admin, cid)
		s.Require().NoError(err)
		s.Equal(cid, c.ID)
	})
}

func (s *ServiceSuite) TestAssignmentRules() {
	cid := s.submit(s.student, false)

	s.Run("non-admin may not assign", func() {
		err := s.svc.Assign(s.ctx, s.staff, cid, s.staff)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "got %v", err)
	})

	s.Run("assignee must hold the staff role", func() {
		err := s.svc.Assign(s.ctx, s.admin, cid, s.student)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation), "got %v", err)
	})

	s.Run("resolved complaints cannot be reassigned", func() {
		s.Require().NoError(s.svc.UpdateStatus(s.ctx, s.admin, cid, complaint.StatusResolved, ""))
		err := s.svc.Assign(s.ctx, s.admin, cid, s.staff)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "got %v", err)
	})
}

func (s *ServiceSuite) TestListViews() {
	mine := s.submit(s.student, false)
	anon := s.submit(s.student, true)
	s.Require().NoError(s.svc.Assign(s.ctx, s.admin, anon, s.staff))

	s.Run("list mine returns both", func() {
		list, err := s.svc.ListMine(s.ctx, s.student)
		s.Require().NoError(err)
		s.Len(list, 2)
	})

	s.Run("list assigned requires staff role", func() {
		_, err := s.svc.ListAssigned(s.ctx, s.student)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "got %v", err)
	})

	s.Run("list assigned returns the worklist redacted", func() {
		list, err := s.svc.ListAssigned(s.ctx, s.staff)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(anon, list[0].ID)
		s.True(list[0].SubmitterID.IsNil())
	})

	s.Run("list all requires admin role", func() {
		_, err := s.svc.ListAll(s.ctx, s.staff)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "got %v", err)
	})

	s.Run("list all redacts anonymous submitters", func() {
		list, err := s.svc.ListAll(s.ctx, s.admin)
		s.Require().NoError(err)
		s.Require().Len(list, 2)
		for _, c := range list {
			if c.ID == anon {
				s.True(c.SubmitterID.IsNil())
			}
			if c.ID == mine {
				s.Equal(s.student, c.SubmitterID)
			}
		}
	})
}

func TestReadUnknownComplaint(t *testing.T) {
	roles := rbacstore.NewInMemory()
	svc := complaint.NewService(
		complaintstore.NewInMemory(),
		rbac.NewService(roles),
		timeline.NewRecorder(timeline.NewInMemoryStore()),
		locker.NewService(locker.NewInMemoryStore()),
	)

	admin := id.NewPrincipalID()
	require.NoError(t, roles.Grant(context.Background(), admin, id.RoleAdmin))

	_, err := svc.Read(context.Background(), admin, id.NewComplaintID())
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound), "got %v", err)
}
