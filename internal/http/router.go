package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lpg-backend/internal/handlers"
	"lpg-backend/internal/middleware"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	customerHandler *handlers.CustomerHandler,
	deliveryHandler *handlers.DeliveryHandler,
	billHandler *handlers.BillHandler,
	paymentHandler *handlers.PaymentHandler,
	invoiceHandler *handlers.InvoiceHandler,
	paymentLogHandler *handlers.PaymentLogHandler,
	healthHandler *handlers.HealthHandler,
	monitoringHandler *handlers.MonitoringHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Health and metrics (no authentication)
	r.HandleFunc("/health", healthHandler.Liveness).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.Readiness).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Public API routes - Authentication
	r.HandleFunc("/api/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.Handle("/api/auth/staff", authMiddleware.RequireAdmin(http.HandlerFunc(authHandler.CreateStaff))).Methods("POST")

	// Protected API routes - Customers
	customersAPI := r.PathPrefix("/api/customers").Subrouter()
	customersAPI.Use(authMiddleware.Authenticate)
	customersAPI.HandleFunc("", customerHandler.ListCustomers).Methods("GET")
	customersAPI.HandleFunc("", customerHandler.CreateCustomer).Methods("POST")
	customersAPI.HandleFunc("/{id}", customerHandler.GetCustomer).Methods("GET")
	customersAPI.HandleFunc("/{id}", customerHandler.UpdateCustomer).Methods("PUT")
	customersAPI.HandleFunc("/{id}", customerHandler.DeleteCustomer).Methods("DELETE")
	customersAPI.HandleFunc("/{id}/outstanding", customerHandler.Outstanding).Methods("GET")
	customersAPI.HandleFunc("/{id}/deliveries", deliveryHandler.ListCustomerDeliveries).Methods("GET")

	// Protected API routes - Delivery ledger
	deliveriesAPI := r.PathPrefix("/api/deliveries").Subrouter()
	deliveriesAPI.Use(authMiddleware.Authenticate)
	deliveriesAPI.HandleFunc("", deliveryHandler.ListDeliveries).Methods("GET")
	deliveriesAPI.HandleFunc("", deliveryHandler.CreateDelivery).Methods("POST")
	deliveriesAPI.HandleFunc("/{id}", deliveryHandler.DeleteDelivery).Methods("DELETE")

	// Protected API routes - Bills and payments
	// Literal paths before the {id} routes so mux matches them first.
	billsAPI := r.PathPrefix("/api/bills").Subrouter()
	billsAPI.Use(authMiddleware.Authenticate)
	billsAPI.HandleFunc("", billHandler.ListBills).Methods("GET")
	billsAPI.HandleFunc("/resync", billHandler.Resync).Methods("GET")
	billsAPI.Handle("/regenerate", authMiddleware.RequireAdmin(http.HandlerFunc(billHandler.Regenerate))).Methods("POST")
	billsAPI.HandleFunc("/{id}", billHandler.GetBill).Methods("GET")
	billsAPI.Handle("/{id}", authMiddleware.RequireAdmin(http.HandlerFunc(billHandler.DeleteBill))).Methods("DELETE")
	billsAPI.HandleFunc("/{id}/payments", paymentHandler.ApplyPayment).Methods("POST")
	billsAPI.HandleFunc("/{id}/payments", paymentHandler.ListPayments).Methods("GET")

	// Protected API routes - Invoices
	invoicesAPI := r.PathPrefix("/api/invoices").Subrouter()
	invoicesAPI.Use(authMiddleware.Authenticate)
	invoicesAPI.HandleFunc("", invoiceHandler.ListInvoices).Methods("GET")
	invoicesAPI.HandleFunc("", invoiceHandler.GenerateInvoice).Methods("POST")
	invoicesAPI.HandleFunc("/{id}", invoiceHandler.GetInvoice).Methods("GET")
	invoicesAPI.HandleFunc("/{id}", invoiceHandler.DeleteInvoice).Methods("DELETE")
	invoicesAPI.HandleFunc("/{id}/pdf", invoiceHandler.DownloadPDF).Methods("GET")

	// Protected API routes - Audit trail
	logsAPI := r.PathPrefix("/api/payment-logs").Subrouter()
	logsAPI.Use(authMiddleware.Authenticate)
	logsAPI.HandleFunc("", paymentLogHandler.ListLogs).Methods("GET")

	// Admin monitoring
	r.Handle("/api/monitoring/system", authMiddleware.RequireAdmin(http.HandlerFunc(monitoringHandler.SystemStats))).Methods("GET")

	return r
}
