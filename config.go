package nutriplan

type ModelConfig struct {
	Provider    string  `env:"MODEL_PROVIDER,default=groq"`
	ModelID     string  `env:"MODEL_ID,default=llama-3.3-70b-versatile"`
	APIKey      string  `env:"MODEL_API_KEY,default="`
	MaxTokens   int32   `env:"MAX_TOKENS,default=1024"`
	Temperature float32 `env:"TEMPERATURE,default=0.1"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type AppConfig struct {
	CatalogSource   string  `env:"CATALOG_SOURCE,default=file"`
	CatalogPath     string  `env:"CATALOG_PATH,default=artifacts/catalog.json"`
	CatalogS3Bucket string  `env:"CATALOG_S3_BUCKET,default="`
	CatalogS3Key    string  `env:"CATALOG_S3_KEY,default=catalog.json"`
	MongoURI        string  `env:"MONGO_URI,default=mongodb://localhost:27017"`
	MongoDatabase   string  `env:"MONGO_DATABASE,default=nutriplan"`
	MongoCollection string  `env:"MONGO_COLLECTION,default=ingredients"`
	ListenAddr      string  `env:"LISTEN_ADDR,default=:8080"`
	TargetCalories  float64 `env:"TARGET_CALORIES,default=600"`
	Goal            string  `env:"GOAL,default=MAINTENANCE"`
	SlackWebhookURL string  `env:"SLACK_WEBHOOK_URL,default="`
	SlackChannel    string  `env:"SLACK_CHANNEL,default=#meals"`
}
