package models

// ConfirmationSender delivers the post-payment thank-you message to the
// donor. Failures must not undo the status transition that preceded them.
type ConfirmationSender interface {
	// SendDonationConfirmation sends a confirmation to the donor.
	// formattedAmount is already rendered, e.g. "$25.00".
	SendDonationConfirmation(email, displayName, formattedAmount, message string) error

	// NotifyAdmins announces a completed donation on the admin channel.
	// Best-effort; errors are logged by the implementation.
	NotifyAdmins(displayName, formattedAmount string)
}
