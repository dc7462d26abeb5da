package utils

import (
	"fmt"
	"time"
)

func SendGroupInviteEmail(to, groupName, description, inviteURL string, expiresAt time.Time) error {
	subject := fmt.Sprintf("You're invited to join '%s' on SplitLedger", groupName)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
	<meta charset="UTF-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1.0" />
	<title>Group Invitation</title>
	<style>
		body {
			font-family: 'Segoe UI', Roboto, Arial, sans-serif;
			background-color: #f5f7f6;
			margin: 0;
			padding: 0;
			color: #333333;
		}
		.container {
			max-width: 480px;
			margin: 25px auto;
			background: #ffffff;
			border-radius: 12px;
			box-shadow: 0 4px 16px rgba(0, 0, 0, 0.08);
			overflow: hidden;
			border-top: 5px solid #1d4e89;
		}
		.header {
			background-color: #1d4e89;
			color: #ffffff;
			text-align: center;
			padding: 18px 12px;
		}
		.header h1 {
			margin: 0;
			font-size: 18px;
			font-weight: 600;
		}
		.content {
			padding: 20px 18px;
			font-size: 14px;
			line-height: 1.6;
		}
		.group-name {
			font-weight: 600;
			color: #1d4e89;
		}
		.button {
			display: inline-block;
			background-color: #1d4e89;
			color: #ffffff !important;
			text-decoration: none;
			padding: 10px 22px;
			border-radius: 6px;
			font-size: 14px;
			margin: 14px 0;
		}
		.expiry {
			font-size: 12px;
			color: #888888;
		}
		.footer {
			text-align: center;
			font-size: 12px;
			color: #888888;
			padding: 14px;
		}
	</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>Group Invitation</h1>
			</div>
			<div class="content">
				<p>You've been invited to join <span class="group-name">%s</span> on SplitLedger.</p>
				<p>%s</p>
				<p style="text-align:center;">
					<a class="button" href="%s">Join the group</a>
				</p>
				<p class="expiry">This invitation expires on %s.</p>
			</div>
			<div class="footer">
				&copy; SplitLedger. If you weren't expecting this invitation you can ignore this email.
			</div>
		</div>
	</body>
	</html>
	`, groupName, description, inviteURL, expiresAt.Format("January 2, 2006 at 15:04 MST"))

	return SendEmail(to, subject, body)
}
