package awsconf

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Load carrega a configuração da AWS (env vars, profile, IAM role).
func Load(ctx context.Context, region string) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	return config.LoadDefaultConfig(ctx, opts...)
}

// Lazy carrega a configuração apenas no primeiro uso e a reaproveita depois.
type Lazy struct {
	region string
	once   sync.Once
	cfg    aws.Config
	err    error
	load   func(ctx context.Context, region string) (aws.Config, error)
}

func NewLazy(region string) *Lazy {
	return &Lazy{region: region, load: Load}
}

func (l *Lazy) Get(ctx context.Context) (aws.Config, error) {
	l.once.Do(func() {
		l.cfg, l.err = l.load(ctx, l.region)
	})
	return l.cfg, l.err
}

// NewDynamoDB cria o client do DynamoDB; endpoint vazio usa o endpoint da região.
func NewDynamoDB(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}
