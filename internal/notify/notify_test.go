package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/pkg/mailer"
	"github.com/darkorder/ticketing-api/internal/pkg/ticketpdf"
)

type fakeRenderer struct {
	err error
}

func (r fakeRenderer) Render(ticket domain.TicketDetail) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	return []byte("%PDF-" + ticket.ID), nil
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, body []byte) error {
	args := m.Called(ctx, body)
	return args.Error(0)
}

func tickets(ids ...string) []domain.TicketDetail {
	out := make([]domain.TicketDetail, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.TicketDetail{Ticket: domain.Ticket{ID: id}})
	}

	return out
}

func TestComposer_Tickets(t *testing.T) {
	c := NewComposer(fakeRenderer{}, ticketpdf.DefaultBranding)

	msg, err := c.Tickets("buyer@example.com", tickets("a", "b"))
	require.NoError(t, err)

	assert.Equal(t, "buyer@example.com", msg.To)
	assert.Contains(t, msg.HTML, "Total Tickets: 2")
	assert.Contains(t, msg.HTML, "HALLOWEEN PLAY &amp; PARTY")
	require.Len(t, msg.Attachments, 2)
	assert.Equal(t, "ticket_a.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)
	assert.Equal(t, []byte("%PDF-b"), msg.Attachments[1].Content)
}

func TestComposer_PINReset(t *testing.T) {
	msg, err := NewComposer(fakeRenderer{}, ticketpdf.DefaultBranding).PINReset("buyer@example.com", "4821")
	require.NoError(t, err)

	assert.Contains(t, msg.HTML, "4821")
	assert.Empty(t, msg.Attachments)
}

func TestDispatcher_TicketsIssued_SwallowsErrors(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	d := NewDispatcher(NewComposer(fakeRenderer{}, ticketpdf.DefaultBranding), sender)

	assert.NotPanics(t, func() {
		d.TicketsIssued(context.Background(), "buyer@example.com", tickets("a"))
	})
	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestDispatcher_TicketsIssued_RenderFailureSkipsSend(t *testing.T) {
	sender := new(mockSender)
	d := NewDispatcher(NewComposer(fakeRenderer{err: errors.New("bad qr")}, ticketpdf.DefaultBranding), sender)

	d.TicketsIssued(context.Background(), "buyer@example.com", tickets("a"))

	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatcher_PINReset_ReturnsError(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg mailer.Message) bool {
		return msg.To == "buyer@example.com"
	})).Return(errors.New("rejected"))

	d := NewDispatcher(NewComposer(fakeRenderer{}, ticketpdf.DefaultBranding), sender)

	err := d.PINReset(context.Background(), "buyer@example.com", "4821")
	assert.ErrorContains(t, err, "rejected")
}

func TestQueueDispatcher_TicketsIssued_Publishes(t *testing.T) {
	sender := new(mockSender)
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(body []byte) bool {
		var msg mailer.Message
		return json.Unmarshal(body, &msg) == nil && msg.To == "buyer@example.com" && len(msg.Attachments) == 2
	})).Return(nil)

	d := NewQueueDispatcher(NewDispatcher(NewComposer(fakeRenderer{}, ticketpdf.DefaultBranding), sender), publisher)
	d.TicketsIssued(context.Background(), "buyer@example.com", tickets("a", "b"))

	publisher.AssertExpectations(t)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestQueueDispatcher_TicketsIssued_FallsBackToDirect(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil)
	publisher := new(mockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	d := NewQueueDispatcher(NewDispatcher(NewComposer(fakeRenderer{}, ticketpdf.DefaultBranding), sender), publisher)
	d.TicketsIssued(context.Background(), "buyer@example.com", tickets("a"))

	sender.AssertNumberOfCalls(t, "Send", 1)
}

func TestConsumer_Handle(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg mailer.Message) bool {
		return msg.To == "buyer@example.com" && string(msg.Attachments[0].Content) == "%PDF-a"
	})).Return(nil)

	c := NewConsumer("amqp://unused", "", sender)

	body, err := json.Marshal(mailer.Message{
		To:          "buyer@example.com",
		Attachments: []mailer.Attachment{{Filename: "ticket_a.pdf", Content: []byte("%PDF-a")}},
	})
	require.NoError(t, err)

	require.NoError(t, c.handle(context.Background(), body))
	sender.AssertExpectations(t)

	assert.Error(t, c.handle(context.Background(), []byte("{not json")))
}
