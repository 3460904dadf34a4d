package integration_test

const (
	// VNPay sandbox settings
	TestTmnCode    = "CINESTAR"
	TestHashSecret = "SECRETKEY123"
	TestPaymentURL = "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"
	TestReturnURL  = "http://localhost:3000/payments/vnpay/return"
	TestSuccessURL = "http://localhost:5173/payment/success"
	TestFailureURL = "http://localhost:5173/payment/failure"

	// Customer related constants
	TestCustomerName  = "Nguyen Van A"
	TestCustomerPhone = "0901234567"
	TestCustomerEmail = "a@example.com"

	TestShowtimeID = "showtime-1"
)
