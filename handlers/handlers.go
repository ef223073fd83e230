package handlers

// Package handlers provides the HTTP handler functions for the food ordering
// API: session cookie issuance, catalog and rating listings, per-user carts,
// Stripe payment intents and payment records. Handlers hold their MongoDB
// collections on the DB struct and integrate with Prometheus for metrics and
// OpenTelemetry for tracing.

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"os"
	"time"

	"go_trial/bistro/middleware"
	"go_trial/bistro/models"

	"github.com/golang-jwt/jwt"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
)

type DB struct {
	UserCollection    *mongo.Collection
	FoodCollection    *mongo.Collection
	RatingCollection  *mongo.Collection
	CartCollection    *mongo.Collection
	PaymentCollection *mongo.Collection
}

// secretKey is resolved per call so a key supplied through .env is picked up
// after godotenv runs, not frozen at package init.
func secretKey() []byte {
	return []byte(os.Getenv("SECRET_KEY"))
}

// Define Prometheus metrics
var (
	// Counter for user upserts
	upsertCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "user_upsert_requests_total",
			Help: "Total number of requests to upsert a user",
		},
		[]string{"status"}, // Label for status (e.g., created, existing, error)
	)

	// Counter for payment intent creation
	paymentIntentCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_intent_requests_total",
			Help: "Total number of payment intent requests",
		},
		[]string{"status"},
	)

	// Histogram for payment intent duration
	paymentIntentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_intent_duration_seconds",
			Help:    "Histogram of request durations for creating payment intents",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// Counter for recorded payments
	paymentRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_records_total",
		Help: "Total number of payments recorded",
	})
)

func Init() {
	// Register metrics with Prometheus
	prometheus.MustRegister(upsertCount)
	prometheus.MustRegister(paymentIntentCount)
	prometheus.MustRegister(paymentIntentDuration)
	prometheus.MustRegister(paymentRecords)
}

// HomeHandler is the liveness endpoint.
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Server is Running"))
}

// sessionCookie builds the auth cookie with environment-dependent security
// attributes: Secure and cross-site in production, strict otherwise.
func sessionCookie(value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     "token",
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   maxAge,
	}
	if os.Getenv("APP_ENV") == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	} else {
		cookie.SameSite = http.SameSiteStrictMode
	}
	return cookie
}

//IssueTokenHandler signs the request body claims into a 7 day session cookie

func IssueTokenHandler(w http.ResponseWriter, r *http.Request) {
	var claims jwt.MapClaims
	if err := json.NewDecoder(r.Body).Decode(&claims); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if claims == nil {
		claims = jwt.MapClaims{}
	}

	claims["iat"] = time.Now().Unix()
	claims["exp"] = time.Now().Add(7 * 24 * time.Hour).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey())
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, sessionCookie(tokenString, 0))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Cookie set Done"})
}

// RemoveCookieHandler clears the session cookie by reissuing it expired. The
// token itself stays valid until its natural expiry; there is no server side
// session state to invalidate.
func RemoveCookieHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, sessionCookie("", -1))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Removed Cookie"})
}

// CurrentSessionHandler echoes the decoded claims placed in the context by
// the auth middleware.
func CurrentSessionHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Failed to retrieve session claims", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(claims)
}

func (db *DB) GetAllRatings(w http.ResponseWriter, r *http.Request) {
	ratings := make([]models.Rating, 0)

	cursor, err := db.RatingCollection.Find(context.TODO(), bson.M{})
	if err != nil {
		http.Error(w, "Failed to fetch ratings", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(context.TODO())

	// Iterate over the cursor and decode each document
	for cursor.Next(context.TODO()) {
		var rating models.Rating
		if err := cursor.Decode(&rating); err != nil {
			http.Error(w, "Failed to decode rating", http.StatusInternalServerError)
			return
		}
		ratings = append(ratings, rating)
	}
	if err := cursor.Err(); err != nil {
		http.Error(w, "Error while iterating over ratings", http.StatusInternalServerError)
		return
	}

	jsonBytes, err := json.Marshal(ratings)
	if err != nil {
		http.Error(w, "Failed to encode ratings to JSON", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(jsonBytes)
}

func (db *DB) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users := make([]models.User, 0)

	cursor, err := db.UserCollection.Find(context.TODO(), bson.M{})
	if err != nil {
		http.Error(w, "Failed to fetch users", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(context.TODO())

	for cursor.Next(context.TODO()) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			http.Error(w, "Failed to decode user", http.StatusInternalServerError)
			return
		}
		users = append(users, user)
	}
	if err := cursor.Err(); err != nil {
		http.Error(w, "Error while iterating over users", http.StatusInternalServerError)
		return
	}

	jsonBytes, err := json.Marshal(users)
	if err != nil {
		http.Error(w, "Failed to encode users to JSON", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(jsonBytes)
}

func (db *DB) GetAllFoods(w http.ResponseWriter, r *http.Request) {
	foods := make([]models.Food, 0)

	cursor, err := db.FoodCollection.Find(context.TODO(), bson.M{})
	if err != nil {
		http.Error(w, "Failed to fetch foods", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(context.TODO())

	for cursor.Next(context.TODO()) {
		var food models.Food
		if err := cursor.Decode(&food); err != nil {
			http.Error(w, "Failed to decode food", http.StatusInternalServerError)
			return
		}
		foods = append(foods, food)
	}
	if err := cursor.Err(); err != nil {
		http.Error(w, "Error while iterating over foods", http.StatusInternalServerError)
		return
	}

	jsonBytes, err := json.Marshal(foods)
	if err != nil {
		http.Error(w, "Failed to encode foods to JSON", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(jsonBytes)
}

// UpsertUserHandler looks the user up by email. An existing record is
// returned as stored; submitted fields are not applied to it. A new email is
// inserted with a creation timestamp.
func (db *DB) UpsertUserHandler(w http.ResponseWriter, r *http.Request) {
	var user bson.M
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		upsertCount.WithLabelValues("error").Inc()
		return
	}

	email, _ := user["email"].(string)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var existing bson.M
	err := db.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&existing)
	if err == nil {
		// Already registered: hand back the stored record unchanged.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(existing)
		upsertCount.WithLabelValues("existing").Inc()
		return
	}
	if err != mongo.ErrNoDocuments {
		http.Error(w, "Database error: "+err.Error(), http.StatusInternalServerError)
		upsertCount.WithLabelValues("error").Inc()
		return
	}

	user["createdAt"] = time.Now()

	result, err := db.UserCollection.InsertOne(ctx, user)
	if err != nil {
		http.Error(w, "Failed to create user: "+err.Error(), http.StatusInternalServerError)
		upsertCount.WithLabelValues("error").Inc()
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
	upsertCount.WithLabelValues("created").Inc()
}

// AddCartItemHandler inserts the request body into the cart collection as is.
func (db *DB) AddCartItemHandler(w http.ResponseWriter, r *http.Request) {
	var item bson.M
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := db.CartCollection.InsertOne(ctx, item)
	if err != nil {
		http.Error(w, "Failed to add cart item: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

func (db *DB) GetCartItemsByEmail(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]

	cursor, err := db.CartCollection.Find(context.TODO(), bson.M{"email": email})
	if err != nil {
		http.Error(w, "Failed to fetch cart items", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(context.TODO())

	cartItems := make([]models.Cart, 0)
	for cursor.Next(context.TODO()) {
		var cartItem models.Cart
		if err := cursor.Decode(&cartItem); err != nil {
			http.Error(w, "Failed to decode cart item", http.StatusInternalServerError)
			return
		}
		cartItems = append(cartItems, cartItem)
	}
	if err := cursor.Err(); err != nil {
		http.Error(w, "Error while iterating over cart items", http.StatusInternalServerError)
		return
	}

	jsonBytes, err := json.Marshal(cartItems)
	if err != nil {
		http.Error(w, "Failed to encode cart items to JSON", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(jsonBytes)
}

// DeleteCartItemHandler removes one cart item by id. The path value is used
// as a raw string in the filter, so it only matches documents whose _id is a
// string; ObjectID-keyed documents are left alone and the delete reports
// zero matches.
func (db *DB) DeleteCartItemHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	filter := bson.M{"_id": id}

	result, err := db.CartCollection.DeleteOne(context.TODO(), filter)
	if err != nil {
		http.Error(w, "Cannot delete database record", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// toCents converts decimal currency units to integer minor units.
func toCents(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreatePaymentIntentHandler creates a card-only Stripe PaymentIntent for
// the submitted price and returns its client secret for client side
// confirmation. The amount is not validated before conversion.
func CreatePaymentIntentHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	_, span := otel.Tracer("payment-service").Start(r.Context(), "CreatePaymentIntentHandler")
	defer span.End()

	var req struct {
		Price float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		paymentIntentCount.WithLabelValues("error").Inc()
		paymentIntentDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(toCents(req.Price)),
		Currency:           stripe.String(string(stripe.CurrencyUSD)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		span.RecordError(err)
		http.Error(w, "Failed to create payment intent", http.StatusInternalServerError)
		paymentIntentCount.WithLabelValues("error").Inc()
		paymentIntentDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"clientSecret": intent.ClientSecret})
	paymentIntentCount.WithLabelValues("success").Inc()
	paymentIntentDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())
}

// RecordPaymentHandler inserts the payment document, then deletes the cart
// items it references in a single multi-match call. The two operations are
// independent; a failure between them leaves the other's effect in place.
func (db *DB) RecordPaymentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("payment-service").Start(r.Context(), "RecordPaymentHandler")
	defer span.End()

	var payment models.Payment
	if err := json.NewDecoder(r.Body).Decode(&payment); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if payment.Date.IsZero() {
		payment.Date = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	insertResult, err := db.PaymentCollection.InsertOne(ctx, payment)
	if err != nil {
		span.RecordError(err)
		http.Error(w, "Failed to record payment: "+err.Error(), http.StatusInternalServerError)
		return
	}

	ids := make([]primitive.ObjectID, 0, len(payment.CartIDs))
	for _, id := range payment.CartIDs {
		objectID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			// Malformed ids cannot reference a stored cart item; keep them
			// out of the filter rather than matching the zero ObjectID.
			continue
		}
		ids = append(ids, objectID)
	}

	deleteResult, err := db.CartCollection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		// The payment document is already stored at this point.
		span.RecordError(err)
		http.Error(w, "Failed to clear cart items: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"insertResult": insertResult,
		"deleteResult": deleteResult,
	})
	paymentRecords.Inc()
}
