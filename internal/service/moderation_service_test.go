package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/patrykpoborca/wondernest-go-api/internal/dto"
	"github.com/patrykpoborca/wondernest-go-api/internal/events"
	"github.com/patrykpoborca/wondernest-go-api/internal/models"
	"github.com/patrykpoborca/wondernest-go-api/internal/validation"
)

func newModerationFixture() (ModerationService, *queueRepoStub, *submissionRepoStub) {
	queue := newQueueRepoStub()
	submissions := newSubmissionRepoStub()
	svc := NewModerationService(queue, submissions, nil, ModerationConfig{}, testValidate(), events.NewPublisher(nil, testLogger()), testLogger())
	return svc, queue, submissions
}

func seedSubmission(t *testing.T, submissions *submissionRepoStub, status models.SubmissionStatus) models.ContentSubmission {
	t.Helper()
	submission := models.ContentSubmission{
		CreatorID:   uuid.New(),
		Title:       "The Sharing Fox",
		ContentType: models.ContentTypeStory,
		AgeRangeMin: models.DefaultAgeMinMonths,
		AgeRangeMax: models.DefaultAgeMaxMonths,
		Status:      status,
	}
	require.NoError(t, submissions.Create(context.Background(), &submission))
	return submission
}

func openTicket(t *testing.T, svc ModerationService, submissions *submissionRepoStub, report validation.Report) (models.ModerationQueueTicket, models.ContentSubmission) {
	t.Helper()
	submission := seedSubmission(t, submissions, models.StatusSubmittedForReview)
	ticket, err := svc.OpenTicket(context.Background(), submission, report)
	require.NoError(t, err)
	return ticket, submission
}

func cleanReport() validation.Report {
	return validation.Report{ContentSafetyScore: 95, OverallScore: 90, PassedAutomatedChecks: true, RequiresHumanReview: true}
}

func TestModerationServiceOpenTicketPriorities(t *testing.T) {
	svc, _, submissions := newModerationFixture()

	ticket, _ := openTicket(t, svc, submissions, cleanReport())
	require.Equal(t, models.PriorityNormal, ticket.PriorityLevel)
	require.Equal(t, models.QueuePendingAssignment, ticket.Status)

	risky := cleanReport()
	risky.ContentSafetyScore = 55
	ticket, _ = openTicket(t, svc, submissions, risky)
	require.Equal(t, models.PriorityHigh, ticket.PriorityLevel)

	flagged := cleanReport()
	flagged.FlaggedWords = []string{"scary"}
	ticket, _ = openTicket(t, svc, submissions, flagged)
	require.Equal(t, models.PriorityHigh, ticket.PriorityLevel)

	unsafe := cleanReport()
	unsafe.ContentSafetyScore = 20
	ticket, _ = openTicket(t, svc, submissions, unsafe)
	require.Equal(t, models.PriorityUrgent, ticket.PriorityLevel)
}

func TestModerationServiceOpenTicketReusesCompletedRow(t *testing.T) {
	svc, queue, submissions := newModerationFixture()
	ctx := context.Background()

	ticket, submission := openTicket(t, svc, submissions, cleanReport())

	done, err := queue.Complete(ctx, ticket.ID, time.Now(), nil)
	require.NoError(t, err)
	require.True(t, done)

	reopened, err := svc.OpenTicket(ctx, submission, cleanReport())
	require.NoError(t, err)
	require.Equal(t, ticket.ID, reopened.ID, "a resubmission reuses the ticket row")
	require.Equal(t, models.QueuePendingAssignment, reopened.Status)
	require.Nil(t, reopened.AssignedModeratorID)
	require.Nil(t, reopened.ActualCompletionAt)

	// An already open ticket is returned as-is.
	again, err := svc.OpenTicket(ctx, submission, cleanReport())
	require.NoError(t, err)
	require.Equal(t, reopened.ID, again.ID)
}

func TestModerationServiceAssign(t *testing.T) {
	svc, _, submissions := newModerationFixture()
	ctx := context.Background()

	ticket, _ := openTicket(t, svc, submissions, cleanReport())
	moderator := uuid.New()

	assigned, err := svc.Assign(ctx, ticket.ID, moderator)
	require.NoError(t, err)
	require.Equal(t, string(models.QueueAssigned), assigned.Status)
	require.NotNil(t, assigned.AssignedModeratorID)
	require.Equal(t, moderator, *assigned.AssignedModeratorID)
	require.NotNil(t, assigned.EstimatedCompletionAt)

	_, err = svc.Assign(ctx, ticket.ID, uuid.New())
	require.ErrorIs(t, err, ErrTicketAlreadyAssigned)

	_, err = svc.Assign(ctx, uuid.New(), moderator)
	require.ErrorIs(t, err, ErrTicketNotFound)
}

func TestModerationServiceStartReview(t *testing.T) {
	svc, _, submissions := newModerationFixture()
	ctx := context.Background()

	ticket, submission := openTicket(t, svc, submissions, cleanReport())
	moderator := uuid.New()

	_, err := svc.Assign(ctx, ticket.ID, moderator)
	require.NoError(t, err)

	_, err = svc.StartReview(ctx, ticket.ID, uuid.New())
	require.ErrorIs(t, err, ErrNotAssignedModerator)

	started, err := svc.StartReview(ctx, ticket.ID, moderator)
	require.NoError(t, err)
	require.Equal(t, string(models.QueueInReview), started.Status)
	require.NotNil(t, started.ReviewStartedAt)

	stored, err := submissions.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusUnderReview, stored.Status)
}

func TestModerationServiceSubmitDecisionApproves(t *testing.T) {
	svc, queue, submissions := newModerationFixture()
	ctx := context.Background()

	ticket, submission := openTicket(t, svc, submissions, cleanReport())
	moderator := uuid.New()
	_, err := svc.Assign(ctx, ticket.ID, moderator)
	require.NoError(t, err)
	_, err = svc.StartReview(ctx, ticket.ID, moderator)
	require.NoError(t, err)

	rating := 4.5
	decision, err := svc.SubmitDecision(ctx, ticket.ID, moderator, "senior", dto.DecisionRequest{
		Decision:       "approved",
		OverallRating:  &rating,
		PublicFeedback: "Wonderful pacing for the age range.",
	})
	require.NoError(t, err)
	require.Equal(t, "approved", decision.Decision)
	require.Equal(t, "senior", decision.ModeratorLevel)
	require.NotNil(t, decision.OverallRating)

	storedTicket, err := queue.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, models.QueueCompleted, storedTicket.Status)
	require.NotNil(t, storedTicket.ActualCompletionAt)
	require.NotNil(t, storedTicket.ReviewDurationMinutes)

	storedSubmission, err := submissions.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, storedSubmission.Status)

	decisions, err := svc.Decisions(ctx, submission.ID)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
}

func TestModerationServiceDecisionOutcomes(t *testing.T) {
	cases := []struct {
		decision string
		payload  dto.DecisionRequest
		want     models.SubmissionStatus
	}{
		{"rejected", dto.DecisionRequest{Decision: "rejected", PublicFeedback: "Too intense for toddlers."}, models.StatusRejected},
		{"request_changes", dto.DecisionRequest{Decision: "request_changes", SuggestedChanges: "Soften page three."}, models.StatusPendingChanges},
		{"escalate", dto.DecisionRequest{Decision: "escalate", PrivateNotes: "Unsure about the imagery."}, models.StatusUnderReview},
	}

	for _, tc := range cases {
		t.Run(tc.decision, func(t *testing.T) {
			svc, queue, submissions := newModerationFixture()
			ctx := context.Background()

			ticket, submission := openTicket(t, svc, submissions, cleanReport())
			moderator := uuid.New()
			_, err := svc.Assign(ctx, ticket.ID, moderator)
			require.NoError(t, err)

			_, err = svc.SubmitDecision(ctx, ticket.ID, moderator, "standard", tc.payload)
			require.NoError(t, err)

			storedSubmission, err := submissions.GetByID(ctx, submission.ID)
			require.NoError(t, err)
			require.Equal(t, tc.want, storedSubmission.Status)

			storedTicket, err := queue.GetByID(ctx, ticket.ID)
			require.NoError(t, err)
			require.Equal(t, models.QueueCompleted, storedTicket.Status)
		})
	}
}

func TestModerationServiceDecisionPreconditions(t *testing.T) {
	svc, queue, submissions := newModerationFixture()
	ctx := context.Background()

	ticket, submission := openTicket(t, svc, submissions, cleanReport())
	moderator := uuid.New()

	// Rejecting without public feedback never touches storage.
	_, err := svc.SubmitDecision(ctx, ticket.ID, moderator, "standard", dto.DecisionRequest{Decision: "rejected"})
	require.ErrorIs(t, err, ErrPublicFeedbackRequired)

	_, err = svc.SubmitDecision(ctx, ticket.ID, moderator, "standard", dto.DecisionRequest{Decision: "escalate"})
	require.ErrorIs(t, err, ErrPrivateNotesRequired)

	_, err = svc.SubmitDecision(ctx, ticket.ID, moderator, "standard", dto.DecisionRequest{Decision: "publish"})
	require.Error(t, err)

	// Unassigned moderators cannot decide.
	_, err = svc.SubmitDecision(ctx, ticket.ID, moderator, "standard", dto.DecisionRequest{Decision: "approved"})
	require.ErrorIs(t, err, ErrNotAssignedModerator)

	require.Empty(t, queue.decisions)
	stored, err := submissions.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusSubmittedForReview, stored.Status)

	storedTicket, err := queue.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, models.QueuePendingAssignment, storedTicket.Status)
}

func TestModerationServiceDecisionOnClosedTicket(t *testing.T) {
	svc, queue, submissions := newModerationFixture()
	ctx := context.Background()

	ticket, _ := openTicket(t, svc, submissions, cleanReport())
	moderator := uuid.New()
	_, err := svc.Assign(ctx, ticket.ID, moderator)
	require.NoError(t, err)

	done, err := queue.Complete(ctx, ticket.ID, time.Now(), nil)
	require.NoError(t, err)
	require.True(t, done)

	_, err = svc.SubmitDecision(ctx, ticket.ID, moderator, "standard", dto.DecisionRequest{Decision: "approved"})
	require.ErrorIs(t, err, ErrTicketClosed)
}

func TestModerationServiceEscalateReturnsTicketToPool(t *testing.T) {
	svc, _, submissions := newModerationFixture()
	ctx := context.Background()

	ticket, _ := openTicket(t, svc, submissions, cleanReport())
	moderator := uuid.New()
	_, err := svc.Assign(ctx, ticket.ID, moderator)
	require.NoError(t, err)

	escalated, err := svc.Escalate(ctx, ticket.ID, moderator, dto.EscalateRequest{Reason: "needs a senior look"})
	require.NoError(t, err)
	require.Equal(t, string(models.QueueEscalated), escalated.Status)
	require.Equal(t, string(models.PriorityHigh), escalated.PriorityLevel)
	require.True(t, escalated.Escalated)
	require.Nil(t, escalated.AssignedModeratorID)

	_, err = svc.Escalate(ctx, ticket.ID, moderator, dto.EscalateRequest{})
	require.Error(t, err, "reason is required")
}

func TestModerationServiceEscalateRequiresAssignee(t *testing.T) {
	svc, _, submissions := newModerationFixture()
	ctx := context.Background()

	ticket, _ := openTicket(t, svc, submissions, cleanReport())
	moderator := uuid.New()
	_, err := svc.Assign(ctx, ticket.ID, moderator)
	require.NoError(t, err)

	_, err = svc.Escalate(ctx, ticket.ID, uuid.New(), dto.EscalateRequest{Reason: "not my ticket"})
	require.ErrorIs(t, err, ErrNotAssignedModerator)
}

func TestModerationServiceEscalatedTicketIsReclaimable(t *testing.T) {
	svc, _, submissions := newModerationFixture()
	ctx := context.Background()

	ticket, _ := openTicket(t, svc, submissions, cleanReport())
	moderator := uuid.New()
	_, err := svc.Assign(ctx, ticket.ID, moderator)
	require.NoError(t, err)

	_, err = svc.Escalate(ctx, ticket.ID, moderator, dto.EscalateRequest{Reason: "needs a senior look"})
	require.NoError(t, err)

	senior := uuid.New()
	assigned, err := svc.Assign(ctx, ticket.ID, senior)
	require.NoError(t, err)
	require.Equal(t, string(models.QueueAssigned), assigned.Status)
	require.NotNil(t, assigned.AssignedModeratorID)
	require.Equal(t, senior, *assigned.AssignedModeratorID)

	rating := 4.0
	decision, err := svc.SubmitDecision(ctx, ticket.ID, senior, "senior", dto.DecisionRequest{
		Decision:      "approved",
		OverallRating: &rating,
	})
	require.NoError(t, err)
	require.Equal(t, "approved", decision.Decision)
}

func TestModerationServiceSecondDecisionLoses(t *testing.T) {
	svc, queue, submissions := newModerationFixture()
	ctx := context.Background()

	ticket, submission := openTicket(t, svc, submissions, cleanReport())
	moderator := uuid.New()
	_, err := svc.Assign(ctx, ticket.ID, moderator)
	require.NoError(t, err)

	_, err = svc.SubmitDecision(ctx, ticket.ID, moderator, "standard", dto.DecisionRequest{Decision: "approved"})
	require.NoError(t, err)

	// The ticket closed with the first verdict; a repeat leaves no extra row.
	_, err = svc.SubmitDecision(ctx, ticket.ID, moderator, "standard", dto.DecisionRequest{
		Decision:       "rejected",
		PublicFeedback: "Changed my mind.",
	})
	require.ErrorIs(t, err, ErrTicketClosed)

	decisions, err := queue.DecisionsBySubmission(ctx, submission.ID)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	require.Equal(t, models.DecisionApproved, decisions[0].Decision)
}

func TestModerationServiceQueueListing(t *testing.T) {
	svc, _, submissions := newModerationFixture()
	ctx := context.Background()
	moderator := uuid.New()

	urgent := cleanReport()
	urgent.ContentSafetyScore = 10
	urgentTicket, _ := openTicket(t, svc, submissions, urgent)

	openTicket(t, svc, submissions, cleanReport())
	mine, _ := openTicket(t, svc, submissions, cleanReport())
	_, err := svc.Assign(ctx, mine.ID, moderator)
	require.NoError(t, err)

	listing, err := svc.Queue(ctx, moderator, dto.QueueFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(3), listing.Total)
	require.Equal(t, urgentTicket.ID, listing.Items[0].ID, "urgent content is served first")

	listing, err = svc.Queue(ctx, moderator, dto.QueueFilter{AssignedMe: true})
	require.NoError(t, err)
	require.Equal(t, int64(1), listing.Total)
	require.Equal(t, mine.ID, listing.Items[0].ID)

	listing, err = svc.Queue(ctx, moderator, dto.QueueFilter{Unassigned: true})
	require.NoError(t, err)
	require.Equal(t, int64(2), listing.Total)
}

func TestModerationServiceSummaryUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	queue := newQueueRepoStub()
	submissions := newSubmissionRepoStub()
	svc := NewModerationService(queue, submissions, cache, ModerationConfig{SummaryCacheTTL: time.Minute}, testValidate(), events.NewPublisher(nil, testLogger()), testLogger())
	ctx := context.Background()

	submission := seedSubmission(t, submissions, models.StatusSubmittedForReview)
	_, err := svc.OpenTicket(ctx, submission, cleanReport())
	require.NoError(t, err)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), summary.TotalOpen)
	require.Equal(t, int64(1), summary.CountsByPriority[string(models.PriorityNormal)])

	// A second read is served from the cache even when storage changes.
	other := seedSubmission(t, submissions, models.StatusSubmittedForReview)
	extra := models.ModerationQueueTicket{SubmissionID: other.ID, Status: models.QueuePendingAssignment, PriorityLevel: models.PriorityNormal}
	require.NoError(t, queue.CreateTicket(ctx, &extra))

	cached, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), cached.TotalOpen)

	// Queue mutations drop the cache.
	third := seedSubmission(t, submissions, models.StatusSubmittedForReview)
	_, err = svc.OpenTicket(ctx, third, cleanReport())
	require.NoError(t, err)

	fresh, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), fresh.TotalOpen)
}

func TestModerationServiceWorkload(t *testing.T) {
	svc, _, submissions := newModerationFixture()
	ctx := context.Background()
	moderator := uuid.New()

	// One ticket just assigned, one carried through to a decision.
	waiting, _ := openTicket(t, svc, submissions, cleanReport())
	_, err := svc.Assign(ctx, waiting.ID, moderator)
	require.NoError(t, err)

	decided, _ := openTicket(t, svc, submissions, cleanReport())
	_, err = svc.Assign(ctx, decided.ID, moderator)
	require.NoError(t, err)
	_, err = svc.StartReview(ctx, decided.ID, moderator)
	require.NoError(t, err)
	_, err = svc.SubmitDecision(ctx, decided.ID, moderator, "standard", dto.DecisionRequest{Decision: "approved"})
	require.NoError(t, err)

	workload, err := svc.Workload(ctx, moderator)
	require.NoError(t, err)
	require.Equal(t, int64(1), workload.AssignedCount)
	require.Zero(t, workload.InReviewCount)
	require.Equal(t, int64(1), workload.CompletedToday)

	other, err := svc.Workload(ctx, uuid.New())
	require.NoError(t, err)
	require.Zero(t, other.AssignedCount)
	require.Zero(t, other.CompletedToday)
}
