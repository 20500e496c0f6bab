// Package locale holds the user-facing strings. There are exactly two
// languages and the choice is made once per process.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

type Messages struct {
	russian bool
}

// New picks Russian for any tag whose base language is ru and English otherwise,
// including unparsable input.
func New(tag string) Messages {
	parsed, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return Messages{}
	}
	base, _ := parsed.Base()
	ru, _ := language.Russian.Base()
	return Messages{russian: base == ru}
}

func (m Messages) Russian() bool {
	return m.russian
}

func (m Messages) pick(ru, en string) string {
	if m.russian {
		return ru
	}
	return en
}

func (m Messages) FileEmpty() string {
	return m.pick("Файл пустой.", "The file is empty.")
}

func (m Messages) FileTooLarge(maxMB int64) string {
	return m.pick(
		fmt.Sprintf("Файл слишком большой. Максимальный размер: %d МБ.", maxMB),
		fmt.Sprintf("The file is too large. Maximum is %d MB.", maxMB),
	)
}

func (m Messages) MimeMissing(allowed []string) string {
	list := strings.Join(allowed, ", ")
	return m.pick(
		"Не указан тип файла. Допустимые форматы: "+list,
		"No image file type is provided. Allowed formats: "+list,
	)
}

func (m Messages) MimeUnsupported(mime string, allowed []string) string {
	list := strings.Join(allowed, ", ")
	return m.pick(
		fmt.Sprintf("Тип файла не поддерживается: %s. Допустимые форматы: %s", mime, list),
		fmt.Sprintf("Image file type is not supported: %s. Allowed formats: %s", mime, list),
	)
}

func (m Messages) ConversionFailed(format string) string {
	return m.pick(
		fmt.Sprintf("Ошибка при конвертации %s изображения. Попробуйте другой формат.", format),
		fmt.Sprintf("Unable to convert %s image; try a different format.", format),
	)
}

func (m Messages) NoConverter() string {
	return m.pick("Не найден конвертер для данного файла.", "No converter is available for this file.")
}

func (m Messages) RenderFailed() string {
	return m.pick(
		"Не удалось обработать изображение. Попробуйте другой файл.",
		"Unable to process the image. Try a different file.",
	)
}

func (m Messages) ProcessingFailed() string {
	return m.pick("Ошибка при обработке изображения. Попробуйте снова.", "Error during processing. Try again.")
}

func (m Messages) Processing() string {
	return m.pick("Изображение получено, обрабатываю...", "Image received, processing...")
}

func (m Messages) DeliveryCaption() string {
	return m.pick("Вот ваше изображение со сжатием.", "Here is your compressed image.")
}

func (m Messages) PreservationCaption() string {
	return m.pick("Вот ваше изображение без сжатия.", "Here is your uncompressed image.")
}

func (m Messages) SendImage() string {
	return m.pick("Пожалуйста, пришлите изображение как фото или файл.", "Please send an image as a photo or a file.")
}

func (m Messages) PhotoMissing() string {
	return m.pick("Ошибка: не удалось получить фото.", "Error: unable to read the photo.")
}

func (m Messages) RateLimited() string {
	return m.pick("Слишком много запросов. Попробуйте позже.", "Too many requests. Try again later.")
}
