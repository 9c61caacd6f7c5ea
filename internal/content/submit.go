package content

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/abhinandan-events/site-bff-go/internal/model"
)

// Visitor-facing receipt messages.
const (
	MsgTestimonialPending = "Thanks! Your review will appear after admin approval."
	MsgContactSent        = "Message sent successfully!"
	MsgContactQueued      = "Message received! We'll contact you soon."
	MsgNewsletterSent     = "Subscribed successfully!"
	MsgNewsletterQueued   = "Thank you for subscribing!"
)

// SubmitTestimonial forwards a review to the backend. The visitor always hears that the
// review awaits approval, whether or not the backend accepted it.
func (c *Client) SubmitTestimonial(ctx context.Context, sub model.TestimonialSubmission) model.Receipt {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "content.SubmitTestimonial")
	defer span.End()

	if err := c.post(ctx, "/testimonials", sub); err != nil {
		slog.Warn("testimonial submission not accepted by backend", "error", err)
	}
	return model.Receipt{Success: true, Message: MsgTestimonialPending}
}

// SubmitContact forwards a contact request.
func (c *Client) SubmitContact(ctx context.Context, req model.ContactRequest) model.Receipt {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "content.SubmitContact")
	defer span.End()

	if err := c.post(ctx, "/contact", req); err != nil {
		slog.Warn("contact submission not accepted by backend", "error", err)
		return model.Receipt{Success: true, Message: MsgContactQueued}
	}
	return model.Receipt{Success: true, Message: MsgContactSent}
}

// SubscribeNewsletter registers email for the newsletter.
func (c *Client) SubscribeNewsletter(ctx context.Context, email string) model.Receipt {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "content.SubscribeNewsletter")
	defer span.End()

	if err := c.post(ctx, "/newsletter", map[string]string{"email": email}); err != nil {
		slog.Warn("newsletter subscription not accepted by backend", "error", err)
		return model.Receipt{Success: true, Message: MsgNewsletterQueued}
	}
	return model.Receipt{Success: true, Message: MsgNewsletterSent}
}
