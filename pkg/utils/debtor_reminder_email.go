package utils

import "fmt"

func SendDebtorReminderEmail(to, username, amountOwed, groupName string) error {
	subject := fmt.Sprintf("Reminder: you owe $%s in '%s'", amountOwed, groupName)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html lang="en">
	<head>
	<meta charset="UTF-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1.0" />
	<title>Balance Reminder</title>
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
			border-top: 5px solid #b3541e;
		}
		.header {
			background-color: #b3541e;
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
		.amount {
			font-size: 22px;
			font-weight: 700;
			color: #b3541e;
			text-align: center;
			margin: 12px 0;
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
				<h1>Balance Reminder</h1>
			</div>
			<div class="content">
				<p>Hi %s,</p>
				<p>Your current balance in <strong>%s</strong> shows you owe:</p>
				<div class="amount">$%s</div>
				<p>Once you've paid a member back, ask them to record a settlement
				so the group's balances stay up to date.</p>
			</div>
			<div class="footer">
				&copy; SplitLedger. Daily reminder for members with an outstanding balance.
			</div>
		</div>
	</body>
	</html>
	`, username, groupName, amountOwed)

	return SendEmail(to, subject, body)
}
