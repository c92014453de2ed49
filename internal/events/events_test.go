package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hack4change/moncton/internal/events"
)

type recordingPublisher struct {
	changes []events.Change
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, c events.Change) error {
	p.changes = append(p.changes, c)
	return p.err
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "h4c.changes.profiles", events.Subject(events.TableProfiles))
	assert.Equal(t, "h4c.changes.teams", events.Subject(events.TableTeams))
}

func TestNopPublisher(t *testing.T) {
	err := events.NopPublisher{}.Publish(context.Background(), events.Change{Table: events.TableTeams})
	assert.NoError(t, err)
}

func TestPublishQuietly_SwallowsErrors(t *testing.T) {
	p := &recordingPublisher{err: errors.New("nats down")}
	c := events.Change{Table: events.TableTeams, Type: events.TypeInsert, RecordID: "t1"}

	assert.NotPanics(t, func() {
		events.PublishQuietly(context.Background(), p, c)
	})
	assert.Equal(t, []events.Change{c}, p.changes)
}

func TestPublishQuietly_NilPublisher(t *testing.T) {
	assert.NotPanics(t, func() {
		events.PublishQuietly(context.Background(), nil, events.Change{})
	})
}
