// Package contact delivers contact-form messages to the shop operator
// and a confirmation copy to the sender.
//
// The Dispatcher always attempts both copies, operator first, and always
// shows the sender a positive confirmation. Which of the two texts is
// shown depends on whether both copies were accepted. Whether delivery
// failures are also surfaced to the caller as an error is a deployment
// choice (MaskDeliveryFailures).
package contact
