package s3client

import (
	"text2phenotype.com/hmm/logger"
	"bytes"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"sync"
)

// Client moves job inputs and results between the bucket and memory. The
// session is re-acquired once whenever a transfer fails.
type Client struct {
	mu         sync.Mutex
	sess       *session.Session
	bucketName string
	env        EnvironmentConfig
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

type EnvironmentConfig struct {
	BucketName  string `envconfig:"MDL_COMN_STORAGE_CONTAINER_NAME" required:"true"`
	T2PEnv      string `envconfig:"T2P_ENV" required:"true"`
	Region      string `envconfig:"MDL_COMN_AWS_REGION_NAME" required:"true"`
	AwsEndpoint string `envconfig:"MDL_COMN_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"MDL_COMN_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"MDL_COMN_AWS_ACCESS_KEY" default:""`
}

func New() (*Client, error) {
	var env EnvironmentConfig
	if err := envconfig.Process("", &env); err != nil {
		clientLogger.Err(err).Msg("Failed to get proper variables from environment")
		return nil, err
	}
	client := Client{
		bucketName: env.BucketName,
		env:        env,
	}
	if _, err := client.refresh(nil); err != nil {
		return nil, err
	}
	return &client, nil
}

func (client *Client) Upload(data []byte, key string) error {
	params := &s3manager.UploadInput{
		Bucket: aws.String(client.bucketName),
		Key:    aws.String(key),
	}
	return client.withSession(key, func(sess *session.Session, keyLogger zerolog.Logger) error {
		// the body is consumed by every attempt
		params.Body = bytes.NewReader(data)
		keyLogger.Debug().Int("size", len(data)).Msg("Uploading the file")
		_, err := s3manager.NewUploader(sess).Upload(params)
		return err
	})
}

func (client *Client) Download(key string) ([]byte, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(client.bucketName),
		Key:    aws.String(key),
	}
	var res []byte
	err := client.withSession(key, func(sess *session.Session, keyLogger zerolog.Logger) error {
		buf := aws.NewWriteAtBuffer([]byte{})
		keyLogger.Debug().Msg("Downloading file")
		size, err := s3manager.NewDownloader(sess).Download(buf, params)
		if err != nil {
			return err
		}
		keyLogger.Debug().Msgf("Downloaded %v bytes", size)
		res = buf.Bytes()
		return nil
	})
	return res, err
}

func (client *Client) Close() {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.sess = nil
	clientLogger.Info().Msg("Closing client")
}

// withSession runs transfer with the current session and, if it fails, once more
// with a freshly acquired one.
func (client *Client) withSession(key string, transfer func(*session.Session, zerolog.Logger) error) error {
	keyLogger := clientLogger.With().Str("key", key).Str("bucket", client.bucketName).Logger()
	sdkLog := sdkLogger.With().Str("key", key).Str("bucket", client.bucketName).Logger()
	sdkConfig := &aws.Config{Logger: getLogger(sdkLog)}

	client.mu.Lock()
	sess := client.sess
	client.mu.Unlock()
	if sess == nil {
		return errors.New("could not get session")
	}

	err := transfer(sess.Copy(sdkConfig), keyLogger)
	if err == nil {
		return nil
	}
	keyLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
	sess, err = client.refresh(sess)
	if err != nil {
		return err
	}
	return transfer(sess.Copy(sdkConfig), keyLogger)
}

// refresh replaces the session unless another caller already replaced stale.
func (client *Client) refresh(stale *session.Session) (*session.Session, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.sess != nil && client.sess != stale {
		return client.sess, nil
	}
	sess, err := client.acquireNewSession()
	if err != nil {
		client.sess = nil
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	client.sess = sess
	return sess, nil
}

func (client *Client) ec2Config() *aws.Config {
	return aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(4).
		WithLogLevel(aws.LogDebug)
}

func (client *Client) envConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.env.AccessKeyID, client.env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		clientLogger.Error().Err(err).Msg("Error with credentials from environment")
		return nil, err
	}
	cfg := client.ec2Config().WithCredentials(creds)
	if client.env.T2PEnv == "dev" && len(client.env.AwsEndpoint) > 0 {
		cfg = cfg.WithEndpoint(client.env.AwsEndpoint).WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

// acquireNewSession prefers the instance role and falls back to the static
// credentials from the environment.
func (client *Client) acquireNewSession() (*session.Session, error) {
	sess, err := session.NewSession(client.ec2Config())
	if err == nil {
		if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err == nil {
			clientLogger.Info().Msg("S3 session successfully initialized using EC2")
			return sess, nil
		}
	}
	clientLogger.Info().Msg("Could not initialize S3 session using EC2, trying env credentials")

	cfg, err := client.envConfig()
	if err != nil {
		return nil, err
	}
	sess, err = session.NewSession(cfg)
	if err != nil {
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return nil, err
	}
	if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err != nil {
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return nil, errors.New("could not initialize S3 session")
	}
	clientLogger.Info().Msg("S3 session successfully initialized using env credentials")
	return sess, nil
}

type s3Logger struct {
	fdlLogger zerolog.Logger
}

func getLogger(fdlLogger zerolog.Logger) *s3Logger {
	return &s3Logger{
		fdlLogger,
	}
}

func (logger *s3Logger) Log(v ...interface{}) {
	logger.fdlLogger.Debug().Msg(fmt.Sprint(v...))
}
