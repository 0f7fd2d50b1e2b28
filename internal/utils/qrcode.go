package utils

import (
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

// OrderStatusURL est la page publique de suivi d'une commande
func OrderStatusURL(publicBaseURL, orderID string) string {
	return fmt.Sprintf("%s/orders/%s", strings.TrimRight(publicBaseURL, "/"), orderID)
}

// OrderQRCode génère le PNG pointant vers le suivi de la commande
func OrderQRCode(publicBaseURL, orderID string) ([]byte, error) {
	png, err := qrcode.Encode(OrderStatusURL(publicBaseURL, orderID), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("erreur génération QR: %w", err)
	}
	return png, nil
}
