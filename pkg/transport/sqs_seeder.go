package transport

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SQSClient é o subconjunto do cliente SQS usado pelo seeder.
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSSeeder dispara o seed a cada mensagem recebida na fila.
type SQSSeeder struct {
	client     SQSClient
	queueURL   string
	seeder     Seeder
	retryDelay time.Duration
	logger     zerolog.Logger
}

func NewSQSSeeder(client SQSClient, queueURL string, seeder Seeder) *SQSSeeder {
	return &SQSSeeder{
		client:     client,
		queueURL:   queueURL,
		seeder:     seeder,
		retryDelay: 5 * time.Second,
		logger:     log.With().Str("component", "sqs_seeder").Logger(),
	}
}

// Start faz long polling na fila até ctx ser cancelado. A mensagem só é
// removida quando o seed termina sem erro, senão volta a ficar visível.
func (s *SQSSeeder) Start(ctx context.Context) error {
	if s.queueURL == "" {
		s.logger.Warn().Msg("URL da fila SQS não configurada. Seed via fila desativado.")
		return nil
	}

	s.logger.Info().Str("queue", s.queueURL).Msg("Monitorando fila SQS para seed")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Parando monitoramento SQS")
			return nil
		default:
		}

		out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.queueURL),
			MaxNumberOfMessages: 1,
			WaitTimeSeconds:     20,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error().Err(err).Msgf("Erro no SQS. Retentando em %s...", s.retryDelay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.retryDelay):
			}
			continue
		}

		for _, msg := range out.Messages {
			n, err := s.seeder.Run(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("Falha no seed disparado via SQS")
				continue
			}
			s.logger.Info().Int("records", n).Msg("Seed aplicado via SQS")

			if _, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(s.queueURL),
				ReceiptHandle: msg.ReceiptHandle,
			}); err != nil {
				s.logger.Warn().Err(err).Msg("Falha ao remover mensagem da fila")
			}
		}
	}
}
