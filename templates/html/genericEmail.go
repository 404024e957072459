package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderGenericEmail generates branded HTML for a generic email.
// The subject is displayed in the header banner, and bodyContent is plain text
// that gets HTML-escaped and has newlines converted to <br> tags.
func RenderGenericEmail(subject, bodyContent string) string {
	escaped := html.EscapeString(bodyContent)
	htmlBody := strings.ReplaceAll(escaped, "\n", "<br>")
	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f6fb; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background-color: #1a4f93; padding: 32px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; }
    .content { padding: 32px 30px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .footer { padding: 24px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>%s</h1></div>
    <div class="content">%s</div>
    <div class="footer"><p>Chetak Emergency Hospital Network</p></div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody)
}

// WelcomeSubject is the subject line of the registration email
const WelcomeSubject = "Welcome to Chetak"

// RenderWelcomeEmail returns the HTML and plain text bodies sent after a hospital registers
func RenderWelcomeEmail(hospitalName string) (htmlContent, plainText string) {
	plainText = fmt.Sprintf("Hello %s,\n\n"+
		"Your hospital is now registered with Chetak. Patients in your area can be routed to you "+
		"once your location, ICU status, specialists and equipment are up to date.\n\n"+
		"Keep your emergency capacity current from the hospital dashboard so recommendations stay accurate.",
		strings.TrimSpace(hospitalName))
	return RenderGenericEmail(WelcomeSubject, plainText), plainText
}
