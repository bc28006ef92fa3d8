package event

const OTPEmailDestination string = "otp_email_requested"
const OTPEmailConsumerNotification string = "otp_email_requested_notification"

type OTPEmailMessage struct {
	Email         string `json:"email"`
	Code          string `json:"code"`
	ExpirySeconds int64  `json:"expiry_seconds"`
}
