package listing

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rsshonjoydas/realtor-api/internal/models"
)

// UploadedImage — изображение, уже лежащее в блоб-хранилище: результат
// серверной загрузки либо ссылка из формы после прямой загрузки клиентом
type UploadedImage struct {
	URL        string               `json:"url"`
	PreviewURL string               `json:"preview_url,omitempty"`
	PublicID   string               `json:"public_id"`
	FileName   string               `json:"file_name,omitempty"`
	Metadata   models.ImageMetadata `json:"metadata"`
}

// Uploader загружает и удаляет изображения в блоб-хранилище
type Uploader interface {
	UploadImage(ctx context.Context, ownerID uuid.UUID, img ImageFile) (UploadedImage, error)
	DestroyImage(ctx context.Context, publicID string) error
}

// Store — операции хранилища, нужные процессу отправки
type Store interface {
	// OwnerOf возвращает владельца объявления; KindNotFound если его нет
	OwnerOf(ctx context.Context, listingID uuid.UUID) (uuid.UUID, error)
	// Create вставляет объявление вместе с изображениями в одной транзакции
	Create(ctx context.Context, l *models.Listing) error
	// Update обновляет объявление; изображения заменяются только когда replaceImages = true
	Update(ctx context.Context, l *models.Listing, replaceImages bool) error
	// Delete удаляет объявление с изображениями и возвращает public_id блобов
	Delete(ctx context.Context, listingID uuid.UUID) ([]string, error)
}

// Workflow проводит черновик через отправку:
// валидация → загрузка изображений → запись в базу.
// Ни один шаг не начинается, пока не завершился предыдущий; при любой
// ошибке документ не пишется, а уже загруженные блобы удаляются.
type Workflow struct {
	uploader Uploader
	store    Store
}

// NewWorkflow создает процесс отправки поверх загрузчика и хранилища
func NewWorkflow(uploader Uploader, store Store) *Workflow {
	return &Workflow{uploader: uploader, store: store}
}

// Submit отправляет черновик. Для обновления передается listingID существующего
// объявления — тогда сначала проверяется владение. Возвращает ID объявления.
func (w *Workflow) Submit(ctx context.Context, userID uuid.UUID, d *Draft, listingID *uuid.UUID) (uuid.UUID, error) {
	if err := d.Validate(); err != nil {
		return uuid.Nil, err
	}

	isUpdate := listingID != nil
	if isUpdate {
		// Проверка владения до любых загрузок
		owner, err := w.store.OwnerOf(ctx, *listingID)
		if err != nil {
			return uuid.Nil, err
		}
		if owner != userID {
			return uuid.Nil, &FlowError{Kind: KindPermission, Message: "Объявление принадлежит другому пользователю"}
		}
	}

	uploaded, err := w.uploadAll(ctx, userID, d.Images)
	if err != nil {
		return uuid.Nil, err
	}

	// Ссылки на блобы, загруженные клиентом напрямую, идут первыми,
	// за ними файлы этой отправки
	all := make([]UploadedImage, 0, len(d.Uploaded)+len(uploaded))
	all = append(all, d.Uploaded...)
	all = append(all, uploaded...)

	l := &models.Listing{
		UserID:          userID,
		Type:            d.Type,
		Name:            d.Name,
		Bedrooms:        d.Bedrooms,
		Bathrooms:       d.Bathrooms,
		Parking:         d.Parking,
		Furnished:       d.Furnished,
		Address:         d.Address,
		Description:     d.Description,
		Offer:           d.Offer,
		RegularPrice:    d.RegularPrice,
		DiscountedPrice: d.DiscountedPrice,
		Images:          imagesForRecord(all),
	}

	if isUpdate {
		l.ID = *listingID
		err = w.store.Update(ctx, l, len(all) > 0)
	} else {
		l.ID = uuid.New()
		err = w.store.Create(ctx, l)
	}

	if err != nil {
		// Запись не удалась — убираем блобы, загруженные этой отправкой.
		// Клиентские ссылки не трогаем: они нужны для повторной попытки.
		w.cleanup(ctx, uploaded)
		if fe, ok := err.(*FlowError); ok {
			return uuid.Nil, fe
		}
		return uuid.Nil, &FlowError{Kind: KindPersist, Message: "Ошибка сохранения объявления", Err: err}
	}

	return l.ID, nil
}

// Delete удаляет объявление владельца: ровно одно обращение к хранилищу
// на подтвержденное удаление, затем чистка блобов. Неудача чистки
// удаление не отменяет.
func (w *Workflow) Delete(ctx context.Context, userID, listingID uuid.UUID) error {
	owner, err := w.store.OwnerOf(ctx, listingID)
	if err != nil {
		return err
	}
	if owner != userID {
		return &FlowError{Kind: KindPermission, Message: "Объявление принадлежит другому пользователю"}
	}

	publicIDs, err := w.store.Delete(ctx, listingID)
	if err != nil {
		return &FlowError{Kind: KindPersist, Message: "Ошибка удаления объявления", Err: err}
	}

	cleanCtx := context.WithoutCancel(ctx)
	for _, publicID := range publicIDs {
		if err := w.uploader.DestroyImage(cleanCtx, publicID); err != nil {
			log.Printf("Не удалось удалить блоб %s: %v", publicID, err)
		}
	}

	return nil
}

// uploadAll загружает все изображения одновременно и ждет завершения каждой
// загрузки. Результаты раскладываются по индексу исходного порядка: нулевой
// индекс — обложка. Первая ошибка отменяет остальные загрузки, успевшие
// загрузиться блобы удаляются, и вся отправка завершается ошибкой.
func (w *Workflow) uploadAll(ctx context.Context, userID uuid.UUID, images []ImageFile) ([]UploadedImage, error) {
	if len(images) == 0 {
		return nil, nil
	}

	results := make([]UploadedImage, len(images))
	done := make([]bool, len(images))

	g, gctx := errgroup.WithContext(ctx)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			up, err := w.uploader.UploadImage(gctx, userID, img)
			if err != nil {
				return fmt.Errorf("изображение %q: %w", img.FileName, err)
			}
			results[i] = up
			done[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		w.cleanup(ctx, succeeded(results, done))
		return nil, &FlowError{Kind: KindUpload, Message: "Не удалось загрузить изображения", Err: err}
	}

	return results, nil
}

// cleanup удаляет загруженные блобы после неудачной отправки.
// Чистка не должна срываться из-за отмененного контекста запроса.
func (w *Workflow) cleanup(ctx context.Context, uploaded []UploadedImage) {
	cleanCtx := context.WithoutCancel(ctx)
	for _, up := range uploaded {
		if err := w.uploader.DestroyImage(cleanCtx, up.PublicID); err != nil {
			log.Printf("Не удалось удалить блоб %s после ошибки отправки: %v", up.PublicID, err)
		}
	}
}

func succeeded(results []UploadedImage, done []bool) []UploadedImage {
	var ok []UploadedImage
	for i := range results {
		if done[i] {
			ok = append(ok, results[i])
		}
	}
	return ok
}

// imagesForRecord превращает результаты загрузки в записи изображений,
// сохраняя исходный порядок
func imagesForRecord(uploaded []UploadedImage) []models.ListingImage {
	images := make([]models.ListingImage, 0, len(uploaded))
	for i, up := range uploaded {
		images = append(images, models.ListingImage{
			URL:        up.URL,
			PreviewURL: up.PreviewURL,
			PublicID:   up.PublicID,
			FileName:   up.FileName,
			IsMain:     i == 0, // Первое изображение — обложка
			Position:   i,
			Metadata:   up.Metadata,
		})
	}
	return images
}
