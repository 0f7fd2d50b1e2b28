package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"eadshop_back_end/internal/models"

	"github.com/minio/minio-go/v7"
)

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader *strings.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// minioObjects adapte *minio.Client (PutObject prend un io.Reader)
type minioObjects struct {
	client *minio.Client
}

func (m minioObjects) PutObject(ctx context.Context, bucket, object string, reader *strings.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return m.client.PutObject(ctx, bucket, object, reader, size, opts)
}

func (m minioObjects) PresignedGetObject(ctx context.Context, bucket, object string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	return m.client.PresignedGetObject(ctx, bucket, object, expires, reqParams)
}

// ReceiptArchiver dépose un reçu HTML par commande payée dans MinIO
type ReceiptArchiver struct {
	objects       objectStore
	bucket        string
	publicBaseURL string
}

func NewReceiptArchiver(client *minio.Client, bucket, publicBaseURL string) *ReceiptArchiver {
	return &ReceiptArchiver{objects: minioObjects{client: client}, bucket: bucket, publicBaseURL: publicBaseURL}
}

func ReceiptObjectName(orderID string) string {
	return fmt.Sprintf("receipts/%s.html", orderID)
}

func (a *ReceiptArchiver) Name() string { return "minio" }

func (a *ReceiptArchiver) Send(ctx context.Context, _ string, order *models.Order) error {
	body, err := renderHTML(newOrderView(order, a.publicBaseURL))
	if err != nil {
		return err
	}
	reader := strings.NewReader(body)
	_, err = a.objects.PutObject(ctx, a.bucket, ReceiptObjectName(order.OrderID), reader, reader.Size(),
		minio.PutObjectOptions{ContentType: "text/html; charset=utf-8"})
	if err != nil {
		return fmt.Errorf("archivage du reçu: %w", err)
	}
	return nil
}

// ReceiptURL renvoie un lien temporaire vers le reçu archivé
func (a *ReceiptArchiver) ReceiptURL(ctx context.Context, orderID string, ttl time.Duration) (string, error) {
	u, err := a.objects.PresignedGetObject(ctx, a.bucket, ReceiptObjectName(orderID), ttl, make(url.Values))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
