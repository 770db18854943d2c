package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/pawmatch/internal/directory"
	"github.com/spigell/pawmatch/internal/filtering"
	"github.com/spigell/pawmatch/internal/pets"
	"github.com/spigell/pawmatch/internal/session"
)

func (d *Dispatcher) searchCandidates(ctx context.Context, t *turn) (outcome, error) {
	q := d.searchQuery(t.params, d.cfg.SearchLimit)

	result, err := d.catalog.Search(ctx, q)
	if err != nil {
		return outcome{}, fmt.Errorf("search candidates: %w", err)
	}

	views := make([]CandidateView, 0, result.Len())
	for _, c := range result.Items {
		if c != nil {
			views = append(views, viewOf(c))
		}
	}

	var messages []Message
	if len(views) == 0 {
		messages = []Message{textMessage("I couldn't find any pets matching that near %s. Try widening the search.", q.Location)}
	} else {
		messages = []Message{
			textMessage("I found %d pets near %s:", len(views), q.Location),
			{Type: MessageCandidates, Candidates: views},
		}
	}

	return outcome{
		messages: messages,
		patch: session.Params{
			session.ParamResultsCount: len(views),
			session.ParamLastLocation: q.Location,
		},
		fields: map[string]any{
			"results_count": len(views),
			"species":       q.Species,
		},
	}, nil
}

func (d *Dispatcher) validateCandidateID(ctx context.Context, t *turn) (outcome, error) {
	id := t.params.String(session.ParamCandidateID)

	candidate, err := d.catalog.GetByID(ctx, id)
	if errors.Is(err, directory.ErrNotFound) {
		return outcome{}, &ValidationError{
			Param:  session.ParamCandidateID,
			Prompt: fmt.Sprintf("I couldn't find a pet with ID %s. Could you double-check the number?", id),
			Err:    err,
		}
	}
	if err != nil {
		return outcome{}, fmt.Errorf("validate candidate %s: %w", id, err)
	}

	patch := session.Params{
		session.ParamValidatedID:    candidate.ID,
		session.ParamCandidateName:  candidate.Name,
		session.ParamCandidateBreed: candidate.BreedLabel(),
		session.ParamCandidateAge:   candidate.AgeBand,
		session.ParamCandidateSex:   candidate.Sex,
		session.ParamShelterCity:    candidate.Location.City,
		session.ParamShelterState:   candidate.Location.State,
	}
	if candidate.Organization.Name != "" {
		patch[session.ParamShelterName] = candidate.Organization.Name
	}

	view := viewOf(candidate)
	return outcome{
		messages: []Message{
			textMessage("Great, I found %s!", displayName(candidate)),
			{Type: MessageCandidate, Candidate: &view},
		},
		patch: patch,
		fields: map[string]any{"candidate_id": candidate.ID},
	}, nil
}

func (d *Dispatcher) getRecommendations(ctx context.Context, t *turn) (outcome, error) {
	profile, err := t.params.Profile()
	if err != nil {
		// A malformed profile value should not block recommendations.
		t.logger.Warn("profile decode failed, ranking with a partial profile", zap.Error(err))
	}

	q := d.searchQuery(t.params, d.cfg.RecommendationPool)
	pool, err := d.catalog.Search(ctx, q)
	if err != nil {
		return outcome{}, fmt.Errorf("recommendation pool: %w", err)
	}
	poolSize := pool.Len()

	steps, err := d.filters()
	if err != nil {
		return outcome{}, fmt.Errorf("filter candidates: %w", err)
	}
	filtered, err := filtering.Run(ctx,
		&filtering.Config{Species: q.Species},
		filtering.Deps{Logger: t.logger},
		steps,
		pool,
	)
	if err != nil {
		return outcome{}, fmt.Errorf("filter candidates: %w", err)
	}

	matches, err := d.ranker.Rank(ctx, profile, filtered.Items, d.cfg.TopK)
	if err != nil {
		return outcome{}, fmt.Errorf("rank candidates: %w", err)
	}

	if len(matches) == 0 {
		return outcome{
			messages: []Message{textMessage("I couldn't find pets to recommend near %s right now.", q.Location)},
			patch:    session.Params{session.ParamRecommendedIDs: ""},
			fields:   map[string]any{"results_count": 0},
		}, nil
	}

	views := make([]CandidateView, 0, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		views = append(views, viewOfMatch(m))
		ids = append(ids, m.Candidate.ID)
	}

	return outcome{
		messages: []Message{
			textMessage("Here are my top %d matches for you:", len(views)),
			{Type: MessageCandidates, Candidates: views},
		},
		patch: session.Params{session.ParamRecommendedIDs: strings.Join(ids, ",")},
		fields: map[string]any{
			"results_count": len(views),
			"pool_size":     poolSize,
			"top_score":     matches[0].Score.Overall,
		},
	}, nil
}

func (d *Dispatcher) scheduleVisit(ctx context.Context, t *turn) (outcome, error) {
	id := d.candidateID(t)

	date, err := ParseDate(t.params[session.ParamDate])
	if err != nil {
		return outcome{}, &ValidationError{Param: session.ParamDate, Prompt: needDate.prompt, Err: err}
	}
	clock, err := ParseTime(t.params[session.ParamTime])
	if err != nil {
		return outcome{}, &ValidationError{Param: session.ParamTime, Prompt: needTime.prompt, Err: err}
	}

	visit := Visit{
		ConversationID: t.conversationID,
		CandidateID:    id,
		CandidateName:  t.params.String(session.ParamCandidateName),
		ShelterName:    t.params.String(session.ParamShelterName),
		Date:           date,
		Time:           clock,
	}
	if err := d.delegate.ScheduleVisit(ctx, visit); err != nil {
		return outcome{}, fmt.Errorf("schedule visit: %w", err)
	}

	name := visit.CandidateName
	if name == "" {
		name = "pet " + id
	}
	return outcome{
		messages: []Message{
			textMessage("Your visit with %s is booked for %s at %s.", name, date, clock),
			{Type: MessageConfirmation, Confirmation: map[string]string{
				"candidate_id": id,
				"date":         date,
				"time":         clock,
			}},
		},
		patch: session.Params{
			session.ParamVisitCandidate: id,
			session.ParamVisitDate:      date,
			session.ParamVisitTime:      clock,
		},
		fields: map[string]any{"candidate_id": id, "visit_date": date},
	}, nil
}

func (d *Dispatcher) submitApplication(ctx context.Context, t *turn) (outcome, error) {
	id := d.candidateID(t)

	app := Application{
		ConversationID: t.conversationID,
		CandidateID:    id,
		CandidateName:  t.params.String(session.ParamCandidateName),
		ApplicantName:  t.params.String(session.ParamApplicantName),
		ApplicantEmail: t.params.String(session.ParamApplicantEmail),
		ApplicantPhone: t.params.String(session.ParamApplicantPhone),
	}
	if err := d.delegate.SubmitApplication(ctx, app); err != nil {
		return outcome{}, fmt.Errorf("submit application: %w", err)
	}

	return outcome{
		messages: []Message{
			textMessage("Your application for pet %s has been submitted. The shelter will contact you soon.", id),
			{Type: MessageConfirmation, Confirmation: map[string]string{
				"candidate_id": id,
				"status":       applicationSubmitted,
			}},
		},
		patch: session.Params{
			session.ParamAppCandidate: id,
			session.ParamAppStatus:    applicationSubmitted,
		},
		fields: map[string]any{"candidate_id": id},
	}, nil
}

// candidateID prefers an id supplied with the request, then the last validated one, then the session.
func (d *Dispatcher) candidateID(t *turn) string {
	if id := t.request.String(session.ParamCandidateID); id != "" {
		return id
	}
	if id := t.params.String(session.ParamValidatedID); id != "" {
		return id
	}
	return t.params.String(session.ParamCandidateID)
}

func (d *Dispatcher) searchQuery(params session.Params, limit int) pets.Query {
	q := pets.QueryFromParams(params)
	if q.Distance <= 0 {
		q.Distance = d.cfg.DefaultDistance
	}
	q.Limit = limit
	return q
}

func displayName(c *pets.Candidate) string {
	if c.Name != "" {
		return c.Name
	}
	return "pet " + c.ID
}
