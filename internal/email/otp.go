package email

import "fmt"

// OTPMessage builds the verification mail carrying a freshly minted code.
func OTPMessage(code string, validSeconds int) (subject, body string) {
	subject = "Your OTP Code"
	body = "<h2>OTP Verification</h2>" +
		"<p>Your OTP code is:</p>" +
		fmt.Sprintf("<h1>%s</h1>", code) +
		fmt.Sprintf("<p>This code will expire in %d seconds.</p>", validSeconds)
	return subject, body
}
