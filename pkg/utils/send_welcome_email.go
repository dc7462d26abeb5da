package utils

import "fmt"

func SendWelcomeEmail(to, username string) error {
	subject := fmt.Sprintf("Welcome to SplitLedger, %s!", username)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
		<meta charset="UTF-8" />
		<meta name="viewport" content="width=device-width, initial-scale=1.0" />
		<title>Welcome to SplitLedger</title>
		<style>
			body {
				font-family: 'Segoe UI', Roboto, Arial, sans-serif;
				background-color: #f5f7f6;
				margin: 0;
				padding: 0;
				color: #333333;
			}
			.container {
				max-width: 520px;
				margin: 30px auto;
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
				padding: 20px 14px;
			}
			.header h1 {
				margin: 0;
				font-size: 20px;
				font-weight: 600;
			}
			.content {
				padding: 22px 20px;
				font-size: 14px;
				line-height: 1.6;
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
				<h1>Welcome to SplitLedger</h1>
			</div>
			<div class="content">
				<p>Hi %s,</p>
				<p>Your account is ready. Create a group, invite your friends and
				start recording shared expenses — SplitLedger keeps everyone's
				balance straight so you don't have to.</p>
				<p>Happy splitting!</p>
			</div>
			<div class="footer">
				&copy; SplitLedger. You received this email because you signed up.
			</div>
		</div>
	</body>
	</html>
	`, username)

	return SendEmail(to, subject, body)
}
