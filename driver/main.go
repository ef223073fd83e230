package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"go_trial/bistro/handlers"
	"go_trial/bistro/middleware"
	"go_trial/bistro/middleware/logkafka"
	"go_trial/bistro/telem"
	"go_trial/bistro/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	logPipeline := flag.Bool("logpipeline", false, "run the Kafka to Elasticsearch log pusher instead of the API")
	flag.Parse()

	// Load .env if present; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using process environment")
	}

	brokers := strings.Split(os.Getenv("KAFKA_BROKERS"), ",")

	if *logPipeline {
		if os.Getenv("KAFKA_BROKERS") == "" {
			log.Fatal("KAFKA_BROKERS is required to run the log pipeline")
		}
		pipeline := &utils.LogPipeline{
			Brokers: brokers,
			Topic:   "logs",
			GroupID: "es-pusher",
			Index:   "logs",
		}
		log.Fatal(pipeline.Run(context.Background()))
	}

	// Initialize MongoDB client
	client, err := utils.InitMongoClient()
	if err != nil {
		panic(err)
	}
	defer client.Disconnect(context.TODO())

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "bistroDB"
	}

	// Create an instance of your DB
	db := &handlers.DB{
		UserCollection:    utils.GetCollection(client, dbName, "users"),
		FoodCollection:    utils.GetCollection(client, dbName, "foods"),
		RatingCollection:  utils.GetCollection(client, dbName, "ratings"),
		CartCollection:    utils.GetCollection(client, dbName, "carts"),
		PaymentCollection: utils.GetCollection(client, dbName, "payments"),
	}

	handlers.Init()

	shutdownMetrics, err := telem.InitMetrics("bistro-api")
	if err != nil {
		log.Printf("Failed to initialize metrics: %v", err)
	} else {
		defer shutdownMetrics(context.Background())
	}

	shutdownTracing, err := telem.InitTracing("bistro-api")
	if err != nil {
		log.Printf("Failed to initialize tracing: %v", err)
	} else {
		defer shutdownTracing(context.Background())
	}

	mainRouter := mux.NewRouter()

	mainRouter.HandleFunc("/", handlers.HomeHandler).Methods("GET")
	mainRouter.HandleFunc("/jwt", handlers.IssueTokenHandler).Methods("POST")
	mainRouter.HandleFunc("/remove_cookie", handlers.RemoveCookieHandler).Methods("GET")
	mainRouter.HandleFunc("/ratings", db.GetAllRatings).Methods("GET")
	mainRouter.HandleFunc("/all-users", db.GetAllUsers).Methods("GET")
	mainRouter.HandleFunc("/all-food", db.GetAllFoods).Methods("GET")
	mainRouter.HandleFunc("/create-payment-intent", handlers.CreatePaymentIntentHandler).Methods("POST")
	mainRouter.HandleFunc("/payments", db.RecordPaymentHandler).Methods("POST")
	mainRouter.HandleFunc("/user", db.UpsertUserHandler).Methods("PUT")
	mainRouter.HandleFunc("/cart", db.AddCartItemHandler).Methods("POST")
	mainRouter.HandleFunc("/cartInfo/{email}", db.GetCartItemsByEmail).Methods("GET")
	mainRouter.HandleFunc("/cartData/{id}", db.DeleteCartItemHandler).Methods("DELETE")

	// Routes that require the session cookie
	sessionRouter := mainRouter.PathPrefix("/me").Subrouter()
	sessionRouter.Use(middleware.VerifyToken)
	sessionRouter.HandleFunc("", handlers.CurrentSessionHandler).Methods("GET")

	if os.Getenv("KAFKA_BROKERS") != "" {
		logkafka.InitKafkaWriter(brokers, "logs")
		defer logkafka.CloseKafkaWriter()
		mainRouter.Use(logkafka.LoggingMiddleware)
	}

	// Credentialed CORS for the web client dev origins
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:5174"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowCredentials: true,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	srv := &http.Server{
		Handler:      corsHandler.Handler(mainRouter),
		Addr:         ":" + port,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	log.Printf("Server is running on port %s", port)
	log.Fatal(srv.ListenAndServe())
}
