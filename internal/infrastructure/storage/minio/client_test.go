package minio

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/KeyIP-MolData/internal/config"
	"github.com/turtacn/KeyIP-MolData/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/KeyIP-MolData/pkg/errors"
)

type ClientTestSuite struct {
	suite.Suite
	mockAPI *MockMinIOAPI
	client  *MinIOClient
}

func (s *ClientTestSuite) SetupTest() {
	s.mockAPI = new(MockMinIOAPI)
	s.client = NewMinIOClientWithAPI(s.mockAPI, "artifacts", "us-east-1", logging.NewNopLogger())
}

func (s *ClientTestSuite) TestApplyDefaults() {
	cfg := config.MinIOConfig{Endpoint: "localhost:9000"}
	applyDefaults(&cfg)
	assert.Equal(s.T(), "us-east-1", cfg.Region)
	assert.Equal(s.T(), "moldata-artifacts", cfg.Bucket)
}

func (s *ClientTestSuite) TestEnsureBucket_Creates() {
	s.mockAPI.On("BucketExists", mock.Anything, "artifacts").Return(false, nil)
	s.mockAPI.On("MakeBucket", mock.Anything, "artifacts", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)

	assert.NoError(s.T(), s.client.EnsureBucket(context.Background()))
	s.mockAPI.AssertExpectations(s.T())
}

func (s *ClientTestSuite) TestEnsureBucket_Exists() {
	s.mockAPI.On("BucketExists", mock.Anything, "artifacts").Return(true, nil)

	assert.NoError(s.T(), s.client.EnsureBucket(context.Background()))
	s.mockAPI.AssertNotCalled(s.T(), "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ClientTestSuite) TestEnsureBucket_Error() {
	s.mockAPI.On("BucketExists", mock.Anything, "artifacts").Return(false, errors.New("dial tcp"))

	err := s.client.EnsureBucket(context.Background())
	assert.True(s.T(), pkgerrors.IsCode(err, pkgerrors.ErrCodeStorageError))
}

func (s *ClientTestSuite) TestHealthCheck() {
	s.mockAPI.On("BucketExists", mock.Anything, "artifacts").Return(false, nil).Once()
	status, err := s.client.HealthCheck(context.Background())
	assert.Equal(s.T(), ErrBucketNotFound, err)
	assert.False(s.T(), status.Healthy)

	s.mockAPI.On("BucketExists", mock.Anything, "artifacts").Return(true, nil).Once()
	status, err = s.client.HealthCheck(context.Background())
	assert.NoError(s.T(), err)
	assert.True(s.T(), status.Healthy)
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

//Personal.AI order the ending
